package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhatlangDetector(t *testing.T) {
	d := NewWhatlangDetector()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"пустой текст", "", Unknown},
		{"только пробелы", "   \n\t", Unknown},
		{"без букв", "12345 !!! 67890 ???", Unknown},
		{
			"английский",
			"The quick brown fox jumps over the lazy dog while the children are playing in the garden and the weather is nice",
			"en",
		},
		{
			"русский",
			"Привет, как у тебя дела? Сегодня мы пойдем гулять в парк, если погода будет хорошей и никто не будет против",
			"ru",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text))
		})
	}
}

func TestWhatlangDetector_ShortSampleCommits(t *testing.T) {
	got := NewWhatlangDetector().Detect("привет всем")
	assert.NotEqual(t, Unknown, got, "короткий образец все равно дает код языка")
	assert.Len(t, got, 2)
}

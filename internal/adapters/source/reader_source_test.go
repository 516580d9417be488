package source

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSource(t *testing.T) {
	t.Run("Fetch возвращает содержимое потока", func(t *testing.T) {
		data, err := NewReaderSource(strings.NewReader("test data"), 0).Fetch()
		require.NoError(t, err)
		assert.Equal(t, []byte("test data"), data)
	})

	t.Run("Fetch возвращает ошибку для nil потока", func(t *testing.T) {
		data, err := NewReaderSource(nil, 0).Fetch()
		require.Error(t, err)
		assert.Nil(t, data)
		assert.Contains(t, err.Error(), "reader not set")
	})

	t.Run("пустой поток", func(t *testing.T) {
		_, err := NewReaderSource(strings.NewReader(""), 0).Fetch()
		assert.Error(t, err)
	})

	t.Run("поток ровно в лимит", func(t *testing.T) {
		data, err := NewReaderSource(strings.NewReader("12345"), 5).Fetch()
		require.NoError(t, err)
		assert.Equal(t, "12345", string(data))
	})

	t.Run("поток больше лимита", func(t *testing.T) {
		_, err := NewReaderSource(strings.NewReader("123456"), 5).Fetch()
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("ошибка чтения", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewReaderSource(iotest.ErrReader(boom), 0).Fetch()
		assert.ErrorIs(t, err, boom)
	})
}

package domain

// CounterEntry — одна позиция частотного счетчика.
type CounterEntry struct {
	Key   string
	Value int
	// Path — ссылка на документ кастомного эмодзи/реакции, если она была.
	Path string
}

// Counter — мультимножество, сохраняющее порядок первой вставки ключей.
// Ключи только добавляются, значения только растут.
type Counter struct {
	index   map[string]int
	entries []CounterEntry
}

// NewCounter создает пустой счетчик.
func NewCounter() *Counter {
	return &Counter{index: make(map[string]int)}
}

// Inc увеличивает значение ключа на единицу.
func (c *Counter) Inc(key string) {
	c.Add(key, "", 1)
}

// Add увеличивает значение ключа на n. Path запоминается только при первой
// непустой передаче и больше не перезаписывается.
func (c *Counter) Add(key, path string, n int) {
	if n <= 0 {
		return
	}
	i, ok := c.index[key]
	if !ok {
		i = len(c.entries)
		c.index[key] = i
		c.entries = append(c.entries, CounterEntry{Key: key})
	}
	e := &c.entries[i]
	e.Value += n
	if e.Path == "" && path != "" {
		e.Path = path
	}
}

// Get возвращает позицию по ключу.
func (c *Counter) Get(key string) (CounterEntry, bool) {
	i, ok := c.index[key]
	if !ok {
		return CounterEntry{}, false
	}
	return c.entries[i], true
}

// Value возвращает значение ключа или 0.
func (c *Counter) Value(key string) int {
	e, _ := c.Get(key)
	return e.Value
}

// Len возвращает количество различных ключей.
func (c *Counter) Len() int {
	return len(c.entries)
}

// Entries возвращает копию позиций в порядке первой вставки.
func (c *Counter) Entries() []CounterEntry {
	out := make([]CounterEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// AuthorStats — счетчики одного автора.
type AuthorStats struct {
	Name          string
	MessagesTotal int
	VoiceTotal    int
	Words         *Counter
	Emojis        *Counter
	Reactions     *Counter
}

// ChatStats — счетчики одного чата.
type ChatStats struct {
	ID                int64
	Name              string
	Type              string
	MessagesTotal     int
	MessagesFromOwner int
	// Authors хранит количество сообщений каждого автора в чате.
	Authors   *Counter
	Words     *Counter
	Emojis    *Counter
	Reactions *Counter
}

// Stats — агрегат одного прогона. Авторы и чаты создаются лениво
// и не удаляются до конца прогона.
type Stats struct {
	MessagesTotal int
	VoiceTotal    int
	Words         *Counter
	Emojis        *Counter
	Reactions     *Counter

	authors     map[string]*AuthorStats
	authorOrder []string
	chats       map[int64]*ChatStats
	chatOrder   []int64
}

// NewStats создает пустой агрегат.
func NewStats() *Stats {
	return &Stats{
		Words:     NewCounter(),
		Emojis:    NewCounter(),
		Reactions: NewCounter(),
		authors:   make(map[string]*AuthorStats),
		chats:     make(map[int64]*ChatStats),
	}
}

// Author возвращает счетчики автора, создавая их при первом обращении.
func (s *Stats) Author(name string) *AuthorStats {
	if a, ok := s.authors[name]; ok {
		return a
	}
	a := &AuthorStats{
		Name:      name,
		Words:     NewCounter(),
		Emojis:    NewCounter(),
		Reactions: NewCounter(),
	}
	s.authors[name] = a
	s.authorOrder = append(s.authorOrder, name)
	return a
}

// LookupAuthor возвращает счетчики автора без создания.
func (s *Stats) LookupAuthor(name string) (*AuthorStats, bool) {
	a, ok := s.authors[name]
	return a, ok
}

// Authors возвращает авторов в порядке первого появления.
func (s *Stats) Authors() []*AuthorStats {
	out := make([]*AuthorStats, 0, len(s.authorOrder))
	for _, name := range s.authorOrder {
		out = append(out, s.authors[name])
	}
	return out
}

// Chat возвращает счетчики чата, создавая их при первом обращении.
// Имя и тип фиксируются при создании.
func (s *Stats) Chat(id int64, name, chatType string) *ChatStats {
	if c, ok := s.chats[id]; ok {
		return c
	}
	c := &ChatStats{
		ID:        id,
		Name:      name,
		Type:      chatType,
		Authors:   NewCounter(),
		Words:     NewCounter(),
		Emojis:    NewCounter(),
		Reactions: NewCounter(),
	}
	s.chats[id] = c
	s.chatOrder = append(s.chatOrder, id)
	return c
}

// LookupChat возвращает счетчики чата без создания.
func (s *Stats) LookupChat(id int64) (*ChatStats, bool) {
	c, ok := s.chats[id]
	return c, ok
}

// Chats возвращает чаты в порядке первого появления.
func (s *Stats) Chats() []*ChatStats {
	out := make([]*ChatStats, 0, len(s.chatOrder))
	for _, id := range s.chatOrder {
		out = append(out, s.chats[id])
	}
	return out
}

// StopSet — множество стоп-слов.
type StopSet interface {
	Contains(word string) bool
}

// StopFunc адаптирует предикат к интерфейсу StopSet.
type StopFunc func(word string) bool

// Contains реализует StopSet.
func (f StopFunc) Contains(word string) bool {
	return f(word)
}

// WordSet — StopSet на основе явного списка слов.
type WordSet map[string]struct{}

// NewWordSet создает множество из списка слов.
func NewWordSet(words ...string) WordSet {
	s := make(WordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Contains реализует StopSet.
func (s WordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// EmptyStopSet не фильтрует ничего.
var EmptyStopSet StopSet = WordSet{}

// StopwordContext — языковое решение одного прогона.
type StopwordContext struct {
	Language  string
	Stopwords StopSet
}

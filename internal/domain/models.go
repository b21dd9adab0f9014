package domain

import (
	"fmt"
	"hash/crc32"
	"time"
)

// Chat представляет чат, включенный в индексацию.
// Само существование записи означает "сообщения этого чата индексируются";
// отсутствие — чат отключен.
type Chat struct {
	ID int64 `json:"id"`
}

// Sender — денормализованный кэш отображаемых имен, ключ — ID пользователя или чата.
// Транспорт остается авторитетным источником; эта запись — запасной вариант
// для имен, которые больше нельзя разрешить (например, удаленные аккаунты).
type Sender struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Message представляет одну запись сообщения в поисковом индексе.
// Key уникален в пределах индекса; производные записи (варианты со ссылками)
// получают ключ, детерминированно выводимый из ключа оригинала и URL.
type Message struct {
	Key          string    `json:"key"`
	Text         string    `json:"text"`
	From         string    `json:"from,omitempty"`
	Sender       int64     `json:"sender,omitempty"`
	ViaBot       string    `json:"via_bot,omitempty"`
	ID           int       `json:"id"`
	ChatID       int64     `json:"chat_id"`
	WebPage      string    `json:"web_page,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Date         time.Time `json:"date"`
}

// MessageKey возвращает первичный ключ записи сообщения: "{chat_id}_{message_id}".
func MessageKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%d_%d", chatID, messageID)
}

// DerivedKey возвращает ключ производной записи для пары сообщение+URL.
// Контрольная сумма некриптографическая: она нужна только для короткого ключа
// и идемпотентности (тот же URL — тот же ключ — перезапись, а не дубликат).
func DerivedKey(originalKey, canonicalURL string) string {
	return fmt.Sprintf("%s_%08x", originalKey, crc32.ChecksumIEEE([]byte(canonicalURL)))
}

// FormatDate возвращает дату сообщения в локальном часовом поясе в формате YYYY-MM-DD.
func (m *Message) FormatDate() string {
	return m.Date.Local().Format("2006-01-02")
}

// supergroupIDOffset — смещение, которое Telegram добавляет к внутреннему ID
// супергруппы, чтобы получить отрицательный chat_id для Bot API.
const supergroupIDOffset = 1_000_000_000_000

// Link возвращает постоянную ссылку на сообщение вида https://t.me/c/{id}/{msg}.
// Корректна только для супергрупп; это гарантируется тем, что индексируются
// исключительно супергруппы.
func (m *Message) Link() string {
	return fmt.Sprintf("https://t.me/c/%d/%d", -m.ChatID-supergroupIDOffset, m.ID)
}

// WebPage содержит метаданные Open Graph, извлеченные со страницы.
type WebPage struct {
	URL          string
	Title        string
	Description  string
	ThumbnailURL string
}

// LinkKind различает виды аннотаций ссылок в сообщении.
type LinkKind int

const (
	// LinkKindURL — автоматически распознанный URL в тексте; адрес нужно
	// вырезать из текста по offset/length, измеренным в единицах UTF-16.
	LinkKindURL LinkKind = iota
	// LinkKindTextLink — явная ссылка с текстовой меткой; URL передан напрямую.
	LinkKindTextLink
)

// LinkAnnotation — одна аннотация ссылки, полученная от транспорта.
type LinkAnnotation struct {
	Kind   LinkKind
	Offset int
	Length int
	URL    string
}

// SearchHit — одно совпадение из поискового индекса вместе с подсвеченным фрагментом.
type SearchHit struct {
	Message   Message
	Formatted string
}

// DisplayRecord — готовая к показу запись результата для транспортного слоя.
type DisplayRecord struct {
	ID           string
	Title        string
	Description  string
	MessageHTML  string
	ThumbnailURL string
}

// Package search реализует грамматику фильтров inline-запросов и
// сборку страниц результатов поверх поискового индекса.
package search

import (
	"fmt"
	"strconv"
	"strings"
)

// BotMode описывает, как фильтр относится к сообщениям, присланным через ботов.
type BotMode int

const (
	// BotNone — опция не задана; действует поведение по умолчанию.
	BotNone BotMode = iota
	// BotAll — опция распространяется на все боты.
	BotAll
	// BotSome — опция распространяется на перечисленные боты.
	BotSome
)

// BotFilter — одна бот-опция фильтра; Names заполнен только при BotSome.
type BotFilter struct {
	Mode  BotMode
	Names []string
}

// URLMode описывает отношение фильтра к производным записям со ссылками.
type URLMode int

const (
	// URLsEnabled — записи со ссылками участвуют в поиске наравне с остальными.
	URLsEnabled URLMode = iota
	// URLsDisabled — записи со ссылками исключены.
	URLsDisabled
	// URLsOnly — ищутся только записи со ссылками.
	URLsOnly
)

// Filter — разобранный дескриптор фильтра inline-запроса.
type Filter struct {
	IncludeBots BotFilter
	OnlyBots    BotFilter
	URLs        URLMode
}

// ParseError — ошибка разбора грамматики фильтра. Ее текст показывается
// пользователю дословно, вместе со справкой по использованию.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string {
	return e.msg
}

// Render возвращает текст ошибки вместе со справкой для показа пользователю.
func (e *ParseError) Render() string {
	return e.msg + "\n\n" + Usage()
}

// Usage возвращает краткую справку по грамматике фильтра.
func Usage() string {
	return strings.TrimSpace(`
Usage: [OPTIONS] [QUERY]...

Arguments:
  [QUERY]...  Keywords to search

Options:
  -a, --include-all-bots     Include messages via all bots in search results
  -i, --include-bots <NAME>  Include messages via specific bots in search results
  -l, --only-all-bots        Only search for messages via bots
  -o, --only-bots <NAME>     Only search for messages via specific bots
  -m, --no-urls              Exclude link records from search results
  -w, --only-urls            Only search for link records
`)
}

// flagID перечисляет распознаваемые флаги грамматики.
type flagID int

const (
	flagIncludeAllBots flagID = iota
	flagIncludeBots
	flagOnlyAllBots
	flagOnlyBots
	flagNoURLs
	flagOnlyURLs
)

// flagSpec описывает один флаг: короткую и длинную формы и наличие значения.
// Таблица — явные данные грамматики, включая правила конфликтов.
type flagSpec struct {
	id         flagID
	short      string
	long       string
	takesValue bool
}

var flagTable = []flagSpec{
	{flagIncludeAllBots, "-a", "--include-all-bots", false},
	{flagIncludeBots, "-i", "--include-bots", true},
	{flagOnlyAllBots, "-l", "--only-all-bots", false},
	{flagOnlyBots, "-o", "--only-bots", true},
	{flagNoURLs, "-m", "--no-urls", false},
	{flagOnlyURLs, "-w", "--only-urls", false},
}

func lookupFlag(token string) (flagSpec, bool) {
	for _, spec := range flagTable {
		if token == spec.short || token == spec.long {
			return spec, true
		}
	}
	return flagSpec{}, false
}

func looksLikeFlag(token string) bool {
	return len(token) > 1 && strings.HasPrefix(token, "-")
}

// Parse разбирает свободный текст запроса на поисковый текст и дескриптор фильтра.
// Грамматика регистрозависимая, токенизация по пробелам; все токены, не
// являющиеся флагами, склеиваются через пробел в поисковый текст.
func Parse(raw string) (string, Filter, error) {
	tokens := strings.Fields(raw)

	var words []string
	seen := make(map[flagID]bool)
	values := make(map[flagID][]string)

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if !looksLikeFlag(token) {
			words = append(words, token)
			continue
		}

		spec, ok := lookupFlag(token)
		if !ok {
			return "", Filter{}, &ParseError{msg: fmt.Sprintf("error: unexpected argument %q found", token)}
		}

		seen[spec.id] = true
		if spec.takesValue {
			if i+1 >= len(tokens) || looksLikeFlag(tokens[i+1]) {
				return "", Filter{}, &ParseError{msg: fmt.Sprintf("error: a value is required for %q but none was supplied", spec.long)}
			}
			i++
			values[spec.id] = append(values[spec.id], tokens[i])
		}
	}

	if seen[flagNoURLs] && seen[flagOnlyURLs] {
		return "", Filter{}, &ParseError{msg: "error: the argument '--no-urls' cannot be used with '--only-urls'"}
	}

	var f Filter

	// only_bots в любой форме подразумевает включение всего бот-трафика.
	switch {
	case seen[flagIncludeAllBots] || seen[flagOnlyAllBots] || len(values[flagOnlyBots]) > 0:
		f.IncludeBots = BotFilter{Mode: BotAll}
	case len(values[flagIncludeBots]) > 0:
		f.IncludeBots = BotFilter{Mode: BotSome, Names: values[flagIncludeBots]}
	default:
		f.IncludeBots = BotFilter{Mode: BotNone}
	}

	switch {
	case seen[flagOnlyAllBots]:
		f.OnlyBots = BotFilter{Mode: BotAll}
	case len(values[flagOnlyBots]) > 0:
		f.OnlyBots = BotFilter{Mode: BotSome, Names: values[flagOnlyBots]}
	default:
		f.OnlyBots = BotFilter{Mode: BotNone}
	}

	switch {
	case seen[flagOnlyURLs]:
		f.URLs = URLsOnly
	case seen[flagNoURLs]:
		f.URLs = URLsDisabled
	default:
		f.URLs = URLsEnabled
	}

	return strings.Join(words, " "), f, nil
}

// Compile превращает дескриптор фильтра и область доступа в текстовый
// булев предикат бэкенда. Каждая опция в нейтральном состоянии не
// добавляет ограничений.
func Compile(f Filter, scope []int64) string {
	var b strings.Builder

	b.WriteString("chat_id IN [")
	for i, id := range scope {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteString("]")

	switch f.IncludeBots.Mode {
	case BotSome:
		fmt.Fprintf(&b, " AND (via_bot NOT EXISTS OR via_bot IN [%s])", quoteNames(f.IncludeBots.Names))
	case BotAll:
		// Ограничений нет.
	case BotNone:
		b.WriteString(" AND via_bot NOT EXISTS")
	}

	switch f.OnlyBots.Mode {
	case BotSome:
		fmt.Fprintf(&b, " AND via_bot IN [%s]", quoteNames(f.OnlyBots.Names))
	case BotAll:
		b.WriteString(" AND via_bot EXISTS")
	case BotNone:
		// Ограничений нет.
	}

	switch f.URLs {
	case URLsOnly:
		b.WriteString(" AND web_page EXISTS")
	case URLsDisabled:
		b.WriteString(" AND web_page NOT EXISTS")
	case URLsEnabled:
		// Ограничений нет.
	}

	return b.String()
}

func quoteNames(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = strconv.Quote(name)
	}
	return strings.Join(quoted, ", ")
}

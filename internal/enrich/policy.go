// Package enrich реализует конвейер обогащения сообщений: из аннотаций
// ссылок получаются производные записи с метаданными страниц.
package enrich

import (
	"net/url"
)

// allowedHosts — закрытый список хостов, для которых разрешено обогащение.
var allowedHosts = map[string]struct{}{
	"fixupx.com":        {},
	"www.fixupx.com":    {},
	"fxtwitter.com":     {},
	"www.fxtwitter.com": {},
	"www.youtube.com":   {},
	"youtube.com":       {},
	"youtu.be":          {},
	"github.com":        {},
	"www.github.com":    {},
}

// hostRedirects отображает известные хосты на их зеркала с полноценными
// метаданными Open Graph.
var hostRedirects = map[string]string{
	"x.com":           "fixupx.com",
	"www.x.com":       "www.fixupx.com",
	"twitter.com":     "fxtwitter.com",
	"www.twitter.com": "www.fxtwitter.com",
}

// ResolveURL проверяет URL по списку разрешенных хостов и возвращает его
// каноническую форму. Второй результат false означает молчаливый отказ:
// хост вне списка, не-https схема или непарсящийся адрес.
func ResolveURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "https" {
		return "", false
	}

	host := u.Hostname()
	if redirect, ok := hostRedirects[host]; ok {
		u.Host = redirect
		host = redirect
	}
	if _, ok := allowedHosts[host]; !ok {
		return "", false
	}
	return u.String(), true
}

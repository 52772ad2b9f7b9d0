// Package i18n renders user-facing error messages in the caller's locale.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	i18ncatalog "github.com/louisbranch/dicenotation/internal/platform/i18n/catalog"
)

// Code is a machine-readable error code (duplicated from the errors package
// to avoid a cycle).
type Code = string

const namespace = "errors"

// Catalog maps error codes to message templates for one locale.
type Catalog struct {
	locale    string
	messages  map[Code]string
	templates sync.Map // Code -> *template.Template
}

var (
	catalogsMu sync.RWMutex
	catalogs   = map[string]*Catalog{}
)

// GetCatalog returns the catalog best matching locale, which may be a tag or
// an Accept-Language value. Unknown locales get the en-US catalog.
func GetCatalog(locale string) *Catalog {
	bundle := i18ncatalog.Default()
	resolved := bundle.Match(strings.TrimSpace(locale))

	catalogsMu.RLock()
	c, ok := catalogs[resolved]
	catalogsMu.RUnlock()
	if ok {
		return c
	}

	resolved, messages := bundle.NamespaceMessagesWithFallback(resolved, namespace)
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if existing, ok := catalogs[resolved]; ok {
		return existing
	}
	c = NewCatalog(resolved, messages)
	catalogs[resolved] = c
	return c
}

// NewCatalog creates a catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{locale: locale, messages: cloned}
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template for code with metadata. A code with no
// template renders as itself; a template that fails renders as its source.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	src, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	var t *template.Template
	if cached, ok := c.templates.Load(code); ok {
		t = cached.(*template.Template)
	} else {
		parsed, err := template.New(code).Parse(src)
		if err != nil {
			return src
		}
		c.templates.Store(code, parsed)
		t = parsed
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return src
	}
	return buf.String()
}

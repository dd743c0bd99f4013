// Package i18n загружает встроенные таблицы переводов интерфейса.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"sync"
)

//go:embed locales/*.json
var localeFS embed.FS

// ErrLocaleNotFound возвращается, если для языка нет файла переводов
var ErrLocaleNotFound = errors.New("locale not found")

// Translations - плоская таблица переводов: "exam.sections.vocab" -> "Từ vựng"
type Translations map[string]string

// T возвращает перевод или сам ключ, если перевода нет
func (t Translations) T(key string) string {
	if v, ok := t[key]; ok {
		return v
	}
	return key
}

// Keys возвращает отсортированный список ключей
func (t Translations) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load читает и разворачивает таблицу переводов для языка
func Load(language string) (Translations, error) {
	data, err := fs.ReadFile(localeFS, "locales/"+language+".json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocaleNotFound, language)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse разворачивает вложенный JSON в ключи через точку
func Parse(data []byte) (Translations, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid translations: %w", err)
	}
	out := Translations{}
	flatten("", raw, out)
	return out, nil
}

func flatten(prefix string, node map[string]interface{}, out Translations) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case string:
			out[key] = val
		case float64:
			out[key] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(val)
		}
		// null и массивы пропускаются
	}
}

// Catalog кеширует загруженные таблицы переводов
type Catalog struct {
	mu     sync.RWMutex
	loaded map[string]Translations
	load   func(string) (Translations, error)
}

// NewCatalog создает каталог поверх встроенных файлов
func NewCatalog() *Catalog {
	return &Catalog{loaded: map[string]Translations{}, load: Load}
}

// Get возвращает таблицу для языка, загружая ее при первом обращении
func (c *Catalog) Get(language string) (Translations, error) {
	c.mu.RLock()
	t, ok := c.loaded[language]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.loaded[language]; ok {
		return t, nil
	}
	t, err := c.load(language)
	if err != nil {
		return nil, err
	}
	c.loaded[language] = t
	return t, nil
}

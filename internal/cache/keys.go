package cache

type KeyPrefix string

const (
	PrefixLink KeyPrefix = "link" // link:code -> original URL
)

// KeyBuilder - построитель ключей кэша
type KeyBuilder struct {
	namespace string // Опциональный namespace для multi-tenancy
}

func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace}
}

func (k *KeyBuilder) Build(prefix KeyPrefix, parts ...string) string {
	key := string(prefix)

	if k.namespace != "" {
		key = k.namespace + ":" + key
	}

	for _, part := range parts {
		key += ":" + part
	}

	return key
}

// Link создает ключ для хранения оригинального URL по коду
func (k *KeyBuilder) Link(code string) string {
	return k.Build(PrefixLink, code)
}

var DefaultKeyBuilder = NewKeyBuilder("")

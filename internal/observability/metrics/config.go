package metrics

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Config carries the labels shared by every instrument.
type Config struct {
	ServiceName string
	Environment string
}

func (c Config) service() string {
	if name := strings.TrimSpace(c.ServiceName); name != "" {
		return name
	}
	return "paygate"
}

func (c Config) environment() string {
	if env := strings.TrimSpace(c.Environment); env != "" {
		return env
	}
	return "unknown"
}

// High-cardinality keys never become metric labels.
var droppedAttributeKeys = map[attribute.Key]struct{}{
	"order_id":       {},
	"transaction_id": {},
	"reference":      {},
	"customer_id":    {},
	"request_id":     {},
}

// FilterAttributes removes attributes that would explode series cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, drop := droppedAttributeKeys[attr.Key]; drop {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

package mapper

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/corray333/task-bridge/internal/service/models/backendtask"
	"github.com/corray333/task-bridge/internal/service/models/referencedtask"
)

// Config is the reserved-variable naming convention and mapping defaults.
// Zero fields fall back to the conventional values.
type Config struct {
	DefaultDomain      string
	Namespace          string
	PriorityKey        string
	CustomIntKeyFormat string
	// AggregateKey, when set, stores one additional attribute holding the
	// whole serialized variable bag. Empty disables it.
	AggregateKey string
}

// Mapper transforms a referenced task's variable bag into a backend task.
type Mapper struct {
	cfg           Config
	customIntKeys [backendtask.NumCustomInts]string
	reserved      map[string]struct{}
	now           func() time.Time
}

// NewMapper creates a mapper with the given configuration.
func NewMapper(cfg Config) *Mapper {
	if cfg.Namespace == "" {
		cfg.Namespace = "camunda"
	}
	if cfg.PriorityKey == "" {
		cfg.PriorityKey = "manual_priority"
	}
	if cfg.CustomIntKeyFormat == "" {
		cfg.CustomIntKeyFormat = "custom_int_%d"
	}

	m := &Mapper{
		cfg:      cfg,
		reserved: map[string]struct{}{cfg.PriorityKey: {}},
		now:      time.Now,
	}
	for i := 0; i < backendtask.NumCustomInts; i++ {
		key := fmt.Sprintf(cfg.CustomIntKeyFormat, i+1)
		m.customIntKeys[i] = key
		m.reserved[key] = struct{}{}
	}

	return m
}

// NewMapperFromViper builds the mapper configuration from the config file.
func NewMapperFromViper() *Mapper {
	return NewMapper(Config{
		DefaultDomain:      viper.GetString("mapper.default_domain"),
		Namespace:          viper.GetString("mapper.namespace"),
		PriorityKey:        viper.GetString("mapper.priority_key"),
		CustomIntKeyFormat: viper.GetString("mapper.custom_int_key_format"),
		AggregateKey:       viper.GetString("mapper.aggregate_key"),
	})
}

// MapToBackendTask builds the backend task for a referenced task. Reserved
// control variables are extracted with absent-on-parse-failure semantics;
// everything else passes through as a serialized custom attribute. The
// mapping is deterministic: the same input yields byte-identical attributes.
func (m *Mapper) MapToBackendTask(rt referencedtask.ReferencedTask) backendtask.Task {
	task := backendtask.New(rt.ExternalID)
	task.Name = rt.Name
	task.Owner = rt.Assignee
	task.BusinessProcessID = rt.BusinessProcessID

	task.Domain = rt.Domain
	if task.Domain == "" {
		task.Domain = m.cfg.DefaultDomain
	}

	// Tasks without an explicit due date are planned immediately, at
	// mapping time rather than event-creation time.
	if rt.Due != nil {
		task.Planned = *rt.Due
		task.Due = rt.Due
	} else {
		task.Planned = m.now().UTC()
	}

	if v, ok := rt.Variables[m.cfg.PriorityKey]; ok {
		if n, err := v.IntValue(); err == nil {
			task.ManualPriority = n
		}
	}

	for i, key := range m.customIntKeys {
		v, ok := rt.Variables[key]
		if !ok {
			continue
		}
		if n, err := v.IntValue(); err == nil {
			value := n
			task.CustomInts[i] = &value
		}
	}

	for name, v := range rt.Variables {
		if _, ok := m.reserved[name]; ok {
			continue
		}
		serialized, err := v.CanonicalJSON()
		if err != nil {
			slog.Warn("Skipping unserializable process variable",
				"external_id", rt.ExternalID,
				"variable", name,
				"error", err,
			)
			continue
		}
		task.CustomAttributes[m.attributeKey(name)] = serialized
	}

	if m.cfg.AggregateKey != "" {
		// Map keys sort on marshal, so the aggregate is deterministic too.
		if aggregate, err := json.Marshal(rt.Variables); err == nil {
			task.CustomAttributes[m.attributeKey(m.cfg.AggregateKey)] = string(aggregate)
		}
	}

	return task
}

func (m *Mapper) attributeKey(name string) string {
	return m.cfg.Namespace + ":" + name
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedCounts is a string -> count map that remembers first-insertion order.
// The JSON form is a plain object whose key order follows insertion order,
// so tie-breaking by first-encountered key survives a persistence round-trip.
type OrderedCounts struct {
	keys   []string
	counts map[string]int64
}

// NewOrderedCounts returns an empty counter.
func NewOrderedCounts() *OrderedCounts {
	return &OrderedCounts{counts: make(map[string]int64)}
}

// Add increments key by n, appending key to the order on first sight.
func (c *OrderedCounts) Add(key string, n int64) {
	if c.counts == nil {
		c.counts = make(map[string]int64)
	}
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key] += n
}

// Get returns the count for key (0 if absent).
func (c *OrderedCounts) Get(key string) int64 {
	if c == nil {
		return 0
	}
	return c.counts[key]
}

// Len returns the number of distinct keys.
func (c *OrderedCounts) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns keys in first-insertion order.
func (c *OrderedCounts) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Sum returns the total across all keys.
func (c *OrderedCounts) Sum() int64 {
	if c == nil {
		return 0
	}
	var total int64
	for _, v := range c.counts {
		total += v
	}
	return total
}

// Map returns an unordered copy.
func (c *OrderedCounts) Map() map[string]int64 {
	out := make(map[string]int64, c.Len())
	if c == nil {
		return out
	}
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy.
func (c *OrderedCounts) Clone() *OrderedCounts {
	out := NewOrderedCounts()
	if c == nil {
		return out
	}
	for _, k := range c.keys {
		out.Add(k, c.counts[k])
	}
	return out
}

// MarshalJSON writes keys in insertion order.
func (c *OrderedCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if c != nil {
		for i, k := range c.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			fmt.Fprintf(&buf, "%d", c.counts[k])
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, preserving the order keys appear in.
func (c *OrderedCounts) UnmarshalJSON(data []byte) error {
	*c = OrderedCounts{counts: make(map[string]int64)}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("counts must be a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("counts key must be a string")
		}
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("counts[%q]: %w", key, err)
		}
		v, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return fmt.Errorf("counts[%q]: %w", key, err)
			}
			v = int64(f)
		}
		c.Add(key, v)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

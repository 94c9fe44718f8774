package series

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// FirstYear is the first year of the domain.
	FirstYear = 2020
	// LastYear is the last year of the domain, inclusive.
	LastYear = 2050
	// Len is the number of years in the domain.
	Len = LastYear - FirstYear + 1

	keyPrefix = "val"
)

// keys holds the domain keys in year order.
var keys = func() []string {
	ks := make([]string, Len)
	for i := range ks {
		ks[i] = keyPrefix + strconv.Itoa(FirstYear+i)
	}
	return ks
}()

// Keys returns the year keys in domain order. The returned slice is a copy.
func Keys() []string {
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// KeyAt returns the key for the i-th year of the domain.
// It panics if i is out of range.
func KeyAt(i int) string {
	return keys[i]
}

// IndexOf returns the domain index of key, or -1 if key is not a year key.
func IndexOf(key string) int {
	if !strings.HasPrefix(key, keyPrefix) {
		return -1
	}
	year, err := strconv.Atoi(key[len(keyPrefix):])
	if err != nil || year < FirstYear || year > LastYear {
		return -1
	}
	// Reject non-canonical spellings like "val+2020" or "val02020".
	if keys[year-FirstYear] != key {
		return -1
	}
	return year - FirstYear
}

// IsKey reports whether key belongs to the year domain.
func IsKey(key string) bool {
	return IndexOf(key) >= 0
}

// YearOf returns the calendar year for a key.
func YearOf(key string) (int, error) {
	i := IndexOf(key)
	if i < 0 {
		return 0, fmt.Errorf("%q is not a year key", key)
	}
	return FirstYear + i, nil
}

// Annual is a partial mapping from year key to value. A nil value is an
// explicit null; an absent key is unset.
type Annual map[string]*float64

// Float returns a pointer to v, for building series literals.
func Float(v float64) *float64 {
	return &v
}

// New returns a finalized series where every year is null.
func New() Annual {
	s := make(Annual, Len)
	for _, k := range keys {
		s[k] = nil
	}
	return s
}

// Resolved returns the number of years holding a number.
func (s Annual) Resolved() int {
	n := 0
	for _, v := range s {
		if v != nil {
			n++
		}
	}
	return n
}

// Value returns the number stored for key and whether it is present and
// non-null.
func (s Annual) Value(key string) (float64, bool) {
	v, ok := s[key]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Finalize sets every unset year to null and returns s.
func (s Annual) Finalize() Annual {
	for _, k := range keys {
		if _, ok := s[k]; !ok {
			s[k] = nil
		}
	}
	return s
}

// IsFinal reports whether every year of the domain has a key and no foreign
// keys are present.
func (s Annual) IsFinal() bool {
	if len(s) != Len {
		return false
	}
	for _, k := range keys {
		if _, ok := s[k]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of s.
func (s Annual) Clone() Annual {
	if s == nil {
		return nil
	}
	out := make(Annual, len(s))
	for k, v := range s {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = Float(*v)
	}
	return out
}

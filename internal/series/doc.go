// Package series defines the fixed year domain and the annual data series
// type shared by every stage of the recipe engine.
//
// # Year Domain
//
// The domain is the ordered sequence of 31 years 2020..2050 inclusive. Each
// year is addressed by its key, `val2020` through `val2050`, which is also the
// representation the surrounding application persists on a goal.
//
// # Annual Series
//
// An Annual series maps year keys to values:
//   - a key mapped to a non-nil pointer holds a number
//   - a key mapped to nil holds an explicit null (a known gap)
//   - an absent key is "unset", which is only legal while a series is still
//     being constructed; Finalize turns every unset key into a null
package series

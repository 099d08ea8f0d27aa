package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/tickguard/internal/shared/utils"
)

// transientParams never influence the computed value and are dropped before hashing.
var transientParams = map[string]struct{}{
	"scope":        {},
	"cache_bucket": {},
}

// keyHasher fingerprints indicator parameters.
var keyHasher = utils.DefaultHasher()

// BuildKey derives a cache key. It is pure: the caller supplies the bucket
// (0 for event-driven indicator types, which get no bucket suffix).
//
// Format: "{symbol}:{indicator_type}:{timeframe}:{param_hash}[:bucket_{bucket}]"
func BuildKey(indicatorType, symbol, timeframe string, params map[string]interface{}, bucket int64) string {
	key := fmt.Sprintf("%s:%s:%s:%s", symbol, indicatorType, timeframe, ParamHash(params))
	if bucket != 0 {
		key += fmt.Sprintf(":bucket_%d", bucket)
	}
	return key
}

// ParamHash returns the first 8 hex characters of the hash of the filtered,
// key-sorted parameter map.
func ParamHash(params map[string]interface{}) string {
	filtered := make(map[string]interface{}, len(params))
	for k, v := range params {
		if _, skip := transientParams[k]; skip {
			continue
		}
		filtered[k] = v
	}

	fp, err := keyHasher.Fingerprint(filtered)
	if err != nil {
		// Unserializable params still need a stable key; fall back to their printed form.
		fp = utils.Short(keyHasher.HashString(fmt.Sprintf("%v", filtered)))
	}
	return fp
}

// TimeBucket returns floor(now / size) * size in Unix seconds.
func TimeBucket(now time.Time, size time.Duration) int64 {
	width := int64(size / time.Second)
	if width <= 0 {
		return now.Unix()
	}
	return (now.Unix() / width) * width
}

// IndicatorTypeOf extracts the indicator type segment of a key.
func IndicatorTypeOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// symbolOf extracts the symbol segment of a key.
func symbolOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

// Key derives the cache key for the current time bucket.
func (c *Cache) Key(indicatorType, symbol, timeframe string, params map[string]interface{}) string {
	var bucket int64
	if c.isTimeBucketed(indicatorType) {
		bucket = TimeBucket(c.clock.Now(), c.cfg.BucketSize)
	}
	return BuildKey(indicatorType, symbol, timeframe, params, bucket)
}

func (c *Cache) isTimeBucketed(indicatorType string) bool {
	_, ok := c.bucketed[indicatorType]
	return ok
}

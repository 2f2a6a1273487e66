package tree

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"

	"k8s.io/apimachinery/pkg/util/json"
)

// Hash returns the md5 of the JSON encoding of v. Ordered nodes hash by content and order.
func Hash(v any) string {
	b, _ := json.Marshal(v)
	hash := md5.Sum(b)
	return hex.EncodeToString(hash[:])
}

// Equal reports whether a and b encode to the same JSON document.
func Equal(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

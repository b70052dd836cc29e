package utils

import (
	"github.com/go-json-experiment/json"
)

// Remarshal converts input into output through its JSON form, usually to get
// a generic map out of a typed value.
func Remarshal(input interface{}, output interface{}, opts ...json.Options) (err error) {
	b, err := json.Marshal(input, opts...)
	if nil != err {
		return
	}
	return json.Unmarshal(b, output, opts...)
}

// Package jsoncodec wraps the sonic JSON implementation behind the handful of
// operations the bridge needs, so the codec can be swapped in one place.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var cfg = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return cfg.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return cfg.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return cfg.Unmarshal(data, v)
}

func Encode(w io.Writer, v any) error {
	return cfg.NewEncoder(w).Encode(v)
}

func Decode(r io.Reader, v any) error {
	return cfg.NewDecoder(r).Decode(v)
}

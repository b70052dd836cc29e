package utils

import (
	"testing"

	"github.com/fulldump/biff"
	"github.com/go-json-experiment/json"
)

func TestGetKeys(t *testing.T) {
	keys := GetKeys(map[string]int{"panic": 1, "log": 2})
	biff.AssertEqual(keys, []string{"log", "panic"})

	biff.AssertEqual(GetKeys(map[string]int{}), []string{})
}

func TestRemarshal(t *testing.T) {

	type point struct {
		X int
		Y int
	}

	output := map[string]any{}
	err := Remarshal(point{X: 1, Y: 2}, &output, json.Deterministic(true))
	biff.AssertNil(err)
	biff.AssertEqual(output, map[string]any{"X": float64(1), "Y": float64(2)})
}

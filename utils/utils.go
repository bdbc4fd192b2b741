package utils

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

func Max(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// CeilDiv returns a/b rounded up. b must be positive.
func CeilDiv(a, b int) int {
	AssertTrue(b > 0)
	return (a + b - 1) / b
}

// AssertTrue asserts that b is true. Otherwise, it would panic.
func AssertTrue(b bool) {
	if !b {
		panic(fmt.Sprintf("%+v", errors.Errorf("Assert failed")))
	}
}

func SetRandStringBytes(data []byte) {
	letterBytes := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for i := range data {
		data[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
}

func HumanReadableThroughput(t float64) string {
	if t < 0 || t < 1e-9 { //if t <=0 , return ""
		return ""
	}
	units := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	power := int(math.Log10(t) / 3)
	if power >= len(units) {
		return ""
	}

	return fmt.Sprintf("%.2f%s/sec", t/math.Pow(1000, float64(power)), units[power])
}

package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	enrollCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	enrollCodeLength   = 6
	maxEnrollAttempts  = 5
)

// EnrollCodeGenerator yields candidate enroll codes. Swapped in tests.
type EnrollCodeGenerator func() (string, error)

func randomEnrollCode() (string, error) {
	buf := make([]byte, enrollCodeLength)
	max := big.NewInt(int64(len(enrollCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = enrollCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func collisionDigit() (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return 0, err
	}
	return byte('0' + n.Int64()), nil
}

// uniqueEnrollCode draws a code; when it is taken, a fresh code with one extra
// digit (0-8) is tried instead.
func uniqueEnrollCode(ctx context.Context, gen EnrollCodeGenerator, exists func(context.Context, string) (bool, error)) (string, error) {
	code, err := gen()
	if err != nil {
		return "", err
	}
	taken, err := exists(ctx, code)
	if err != nil {
		return "", err
	}
	for attempt := 0; taken; attempt++ {
		if attempt >= maxEnrollAttempts {
			return "", fmt.Errorf("could not allocate a unique enroll code after %d attempts", maxEnrollAttempts)
		}
		if code, err = gen(); err != nil {
			return "", err
		}
		d, err := collisionDigit()
		if err != nil {
			return "", err
		}
		code += string(d)
		if taken, err = exists(ctx, code); err != nil {
			return "", err
		}
	}
	return code, nil
}

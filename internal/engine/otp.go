package engine

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/nivaan/loanpilot/internal/config"
)

// GenerateOTP returns a random six-digit one-time code.
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900_000))
	if err != nil {
		// crypto/rand failing means the process is in a bad way; a fixed
		// code would silently weaken verification.
		panic(fmt.Sprintf("otp generation: %v", err))
	}
	return fmt.Sprintf("%0*d", config.OTPLength, n.Int64()+100_000)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// KeyOTP holds an otpauth:// URI, as KeePassXC stores it.
const KeyOTP = "otp"

// KeePass 2.47+ native TOTP settings.
const (
	keyTimeOTPSecret       = "TimeOtp-Secret"
	keyTimeOTPSecretHex    = "TimeOtp-Secret-Hex"
	keyTimeOTPSecretBase32 = "TimeOtp-Secret-Base32"
	keyTimeOTPSecretBase64 = "TimeOtp-Secret-Base64"
	keyTimeOTPLength       = "TimeOtp-Length"
	keyTimeOTPPeriod       = "TimeOtp-Period"
	keyTimeOTPAlgorithm    = "TimeOtp-Algorithm"
)

const (
	defaultOTPPeriod = 30
	minOTPDigits     = 6
	maxOTPDigits     = 8
)

// OTPCode is the current time-based one-time password of an entry.
type OTPCode struct {
	Code     string `json:"code"`
	Period   uint64 `json:"period"`
	ValidFor uint64 `json:"valid_for"`
}

type otpSettings struct {
	secret    string // base32, unpadded
	period    uint64
	digits    otp.Digits
	algorithm otp.Algorithm
}

// OTP computes the entry's TOTP code at now.
func (db *Database) OTP(entryID string, now time.Time) (OTPCode, error) {
	e := findEntry(&db.Root, entryID)
	if e == nil {
		return OTPCode{}, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}

	settings, err := entryOTPSettings(e)
	if err != nil {
		return OTPCode{}, err
	}

	code, err := totp.GenerateCodeCustom(settings.secret, now, totp.ValidateOpts{
		Period:    uint(settings.period),
		Digits:    settings.digits,
		Algorithm: settings.algorithm,
	})
	if err != nil {
		return OTPCode{}, fmt.Errorf("%w: %w", ErrInvalidOTP, err)
	}

	return OTPCode{
		Code:     code,
		Period:   settings.period,
		ValidFor: settings.period - uint64(now.Unix())%settings.period,
	}, nil
}

func entryOTPSettings(e *Entry) (otpSettings, error) {
	if f, ok := e.Get(KeyOTP); ok && strings.TrimSpace(f.Value) != "" {
		return uriOTPSettings(f.Value)
	}
	return keePassOTPSettings(e)
}

func uriOTPSettings(uri string) (otpSettings, error) {
	key, err := otp.NewKeyFromURL(strings.TrimSpace(uri))
	if err != nil {
		return otpSettings{}, fmt.Errorf("%w: %w", ErrInvalidOTP, err)
	}
	if key.Type() != "totp" {
		return otpSettings{}, fmt.Errorf("%w: unsupported type %q", ErrInvalidOTP, key.Type())
	}
	settings := otpSettings{
		secret:    key.Secret(),
		period:    key.Period(),
		digits:    key.Digits(),
		algorithm: key.Algorithm(),
	}
	return settings, settings.validate()
}

func keePassOTPSettings(e *Entry) (otpSettings, error) {
	raw, found, err := keePassOTPSecret(e)
	if err != nil {
		return otpSettings{}, err
	}
	if !found {
		return otpSettings{}, ErrNoOTP
	}

	settings := otpSettings{
		secret:    base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw),
		period:    defaultOTPPeriod,
		digits:    otp.DigitsSix,
		algorithm: otp.AlgorithmSHA1,
	}

	if v := e.value(keyTimeOTPPeriod); v != "" {
		if settings.period, err = strconv.ParseUint(v, 10, 64); err != nil {
			return otpSettings{}, fmt.Errorf("%w: period %q", ErrInvalidOTP, v)
		}
	}
	if v := e.value(keyTimeOTPLength); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return otpSettings{}, fmt.Errorf("%w: length %q", ErrInvalidOTP, v)
		}
		settings.digits = otp.Digits(n)
	}
	switch v := e.value(keyTimeOTPAlgorithm); v {
	case "", "HMAC-SHA-1":
	case "HMAC-SHA-256":
		settings.algorithm = otp.AlgorithmSHA256
	case "HMAC-SHA-512":
		settings.algorithm = otp.AlgorithmSHA512
	default:
		return otpSettings{}, fmt.Errorf("%w: algorithm %q", ErrInvalidOTP, v)
	}

	return settings, settings.validate()
}

// keePassOTPSecret decodes the first secret encoding present on the entry.
func keePassOTPSecret(e *Entry) ([]byte, bool, error) {
	decoders := []struct {
		key    string
		decode func(string) ([]byte, error)
	}{
		{key: keyTimeOTPSecretBase32, decode: decodeBase32},
		{key: keyTimeOTPSecret, decode: func(s string) ([]byte, error) { return []byte(s), nil }},
		{key: keyTimeOTPSecretHex, decode: hex.DecodeString},
		{key: keyTimeOTPSecretBase64, decode: base64.StdEncoding.DecodeString},
	}

	for _, d := range decoders {
		v := e.value(d.key)
		if v == "" {
			continue
		}
		raw, err := d.decode(v)
		if err != nil || len(raw) == 0 {
			return nil, true, fmt.Errorf("%w: malformed %s", ErrInvalidOTP, d.key)
		}
		return raw, true, nil
	}
	return nil, false, nil
}

func decodeBase32(s string) ([]byte, error) {
	s = strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(s, "="))
}

func (s otpSettings) validate() error {
	if s.secret == "" {
		return fmt.Errorf("%w: empty secret", ErrInvalidOTP)
	}
	if s.period == 0 {
		return fmt.Errorf("%w: zero period", ErrInvalidOTP)
	}
	if int(s.digits) < minOTPDigits || int(s.digits) > maxOTPDigits {
		return fmt.Errorf("%w: %d digits", ErrInvalidOTP, int(s.digits))
	}
	return nil
}

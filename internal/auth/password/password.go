// Package password hashes user passwords and checks new ones against the
// configured validator set.
package password

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// MaxBytes is the longest password bcrypt accepts.
const MaxBytes = 72

func Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(h), nil
}

// Compare returns nil when plain matches hash.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// ValidationError lists every rule the password failed.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "password: " + strings.Join(e.Problems, "; ")
}

// Attributes are the user fields a password must not resemble.
type Attributes struct {
	Username string
	Email    string
}

// Validator checks one rule and returns a human-readable problem or "".
type Validator func(plain string, attrs Attributes) string

// Policy runs its validators in order and reports all failures together.
// Passwords longer than MaxBytes are always rejected.
type Policy struct {
	validators []Validator
}

// NewPolicy builds a policy from validator names. minLength applies to the
// minimum_length validator.
func NewPolicy(names []string, minLength int) (*Policy, error) {
	p := &Policy{}
	for _, n := range names {
		switch n {
		case "user_attribute_similarity":
			p.validators = append(p.validators, similarityValidator(0.7))
		case "minimum_length":
			p.validators = append(p.validators, minLengthValidator(minLength))
		case "common_password":
			p.validators = append(p.validators, commonValidator)
		case "numeric_password":
			p.validators = append(p.validators, numericValidator)
		default:
			return nil, fmt.Errorf("password: unknown validator %q", n)
		}
	}
	return p, nil
}

func (p *Policy) Validate(plain string, attrs Attributes) error {
	var problems []string
	if len(plain) > MaxBytes {
		problems = append(problems, fmt.Sprintf("this password is too long; it must contain at most %d bytes", MaxBytes))
	}
	for _, v := range p.validators {
		if msg := v(plain, attrs); msg != "" {
			problems = append(problems, msg)
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func minLengthValidator(n int) Validator {
	return func(plain string, _ Attributes) string {
		if len([]rune(plain)) < n {
			return fmt.Sprintf("this password is too short; it must contain at least %d characters", n)
		}
		return ""
	}
}

func numericValidator(plain string, _ Attributes) string {
	if plain == "" {
		return ""
	}
	for _, r := range plain {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return "this password is entirely numeric"
}

func commonValidator(plain string, _ Attributes) string {
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(plain))]; ok {
		return "this password is too common"
	}
	return ""
}

var nonWord = regexp.MustCompile(`\W+`)

// similarityValidator compares the password with each attribute and with the
// attribute's parts split on non-word characters.
func similarityValidator(maxRatio float64) Validator {
	return func(plain string, attrs Attributes) string {
		pw := strings.ToLower(plain)
		for _, attr := range []string{attrs.Username, attrs.Email} {
			attr = strings.ToLower(attr)
			if attr == "" {
				continue
			}
			for _, part := range append(nonWord.Split(attr, -1), attr) {
				if part != "" && similarity(pw, part) >= maxRatio {
					return "this password is too similar to your user details"
				}
			}
		}
		return ""
	}
}

// similarity is 1 - levenshtein(a,b)/max(len(a),len(b)).
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

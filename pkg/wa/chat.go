package wa

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/maxcodl/WhatSave/pkg/countries"
)

const chatBase = "https://wa.me/"

// ChatLink builds a wa.me link for messaging a number without adding
// it to contacts. The dial code comes from the country catalog.
func ChatLink(countryCode, phone string) (string, error) {
	c, err := countries.ByCode(countryCode)
	if err != nil {
		return "", err
	}
	num, err := normalizePhone(phone)
	if err != nil {
		return "", err
	}
	return chatBase + c.Dial + num, nil
}

// normalizePhone strips formatting and the leading trunk zero. The
// dial code is prepended by the caller so a + prefix is rejected.
func normalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// formatting, drop it
		case r == '+':
			return "", errors.New("phone must not carry a dial code")
		default:
			return "", errors.Errorf("bad char %q in phone", r)
		}
	}
	num := strings.TrimLeft(b.String(), "0")
	if len(num) < 4 {
		return "", errors.Errorf("phone %q too short", phone)
	}
	return num, nil
}

package main

import (
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"

	"mcuhal-go/drivers/mcp2515"
	"mcuhal-go/hal"
)

type regWrite struct {
	r mcp2515.Register
	v byte
}

// parseWrites reads a shell-quoted list of NAME=VALUE register writes, e.g.
// "CNF1=0x00 CNF2=0x90 CNF3=0x02".
func parseWrites(flash hal.Flash, s string) ([]regWrite, error) {
	words, err := shlex.Split(s)
	if err != nil {
		return nil, errors.Wrap(err, "register writes")
	}
	out := make([]regWrite, 0, len(words))
	for _, w := range words {
		name, val, ok := strings.Cut(w, "=")
		if !ok {
			return nil, errors.Errorf("%q: want NAME=VALUE", w)
		}
		r, ok := mcp2515.LookupRegister(flash, strings.ToUpper(name))
		if !ok {
			return nil, errors.Errorf("%q: unknown register", name)
		}
		if !mcp2515.Writable(r) {
			return nil, errors.Errorf("%s is read-only", name)
		}
		v, err := strconv.ParseUint(val, 0, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "%s value", name)
		}
		out = append(out, regWrite{r: r, v: byte(v)})
	}
	return out, nil
}

// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a two pass assembler for the Arch-242.
//
// The first pass records equates and the address of every label, the second
// pass resolves branch targets and encodes each line. Assembly is all or
// nothing: the first error aborts the run.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// registerMap is a map of register names to register indexes.
var registerMap = map[string]int{
	"r0": 0, "ra": 0,
	"r1": 1, "rb": 1,
	"r2": 2, "rc": 2,
	"r3": 3, "rd": 3,
	"r4": 4, "re": 4,
}

var (
	identRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)
)

// valueOf returns the value of a simple word.
// Numbers may be hex (0x), binary (0b) or decimal, with an optional '-'.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	digits := word
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	base := 10
	if len(digits) > 2 {
		switch strings.ToLower(digits[:2]) {
		case "0x":
			base = 16
			digits = digits[2:]
		case "0b":
			base = 2
			digits = digits[2:]
		}
	}

	v64, perr := strconv.ParseUint(digits, base, 16)
	if perr != nil {
		if identRegexp.MatchString(word) {
			err = ErrParseValue(word)
		} else {
			err = ErrParseNumber(word)
		}
		return
	}

	value = uint16(v64)
	if negative {
		value = -value
	}

	return
}

// targetOf returns the value of a branch target.
// Identifiers that are not numbers are unresolved labels.
func (asm *Assembler) targetOf(word string) (value uint16, err error) {
	value, err = asm.valueOf(word)
	if _, ok := err.(ErrParseValue); ok {
		err = ErrLabelMissing(word)
	}
	return
}

// registerOf returns the register index named by a word.
func (asm *Assembler) registerOf(word string) (reg int, err error) {
	reg, ok := registerMap[strings.ToLower(word)]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value16, verr := asm.valueOf(str)
		if verr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	for label, addr := range asm.Label {
		_, ok := pred[label]
		if !ok {
			pred[label] = starlark.MakeInt(addr)
		}
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine splits a line of text into words, after removing the comment,
// evaluating $(...) expressions and substituting equates.
// The words are returned even if an expression failed to evaluate.
func (asm *Assembler) parseLine(text string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = strconv.Itoa(lineno)

	line, _, _ := strings.Cut(text, ";")

	// Do $() evaluations
	line = parenRegexp.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
			return str
		}
		return strconv.FormatInt(value, 10)
	})

	words = strings.Fields(line)

	if len(words) > 0 && words[0] == ".equ" {
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// parseEquate records a '.equ NAME VALUE' line.
func (asm *Assembler) parseEquate(words []string) (err error) {
	if len(words) != 3 || !identRegexp.MatchString(words[1]) {
		err = ErrEquateSyntax
		return
	}
	_, ok := asm.Equate[words[1]]
	if ok {
		err = ErrEquateDuplicate
		return
	}
	asm.Equate[words[1]] = words[2]
	return
}

// parseLabels removes leading 'label:' declarations from the words,
// and records them at addr.
func (asm *Assembler) parseLabels(words []string, addr int) (rest []string, err error) {
	rest = words
	for len(rest) > 0 && strings.HasSuffix(rest[0], ":") {
		label := rest[0][:len(rest[0])-1]
		rest = rest[1:]

		if !identRegexp.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = addr

		if asm.Verbose {
			log.Printf("label %v: 0x%02x", label, addr)
		}
	}

	return
}

// checkLabels removes leading 'label:' declarations from the words,
// and verifies they were recorded at addr.
func (asm *Assembler) checkLabels(words []string, addr int) (rest []string, err error) {
	rest = words
	for len(rest) > 0 && strings.HasSuffix(rest[0], ":") {
		label := rest[0][:len(rest[0])-1]
		rest = rest[1:]

		if asm.Label[label] != addr {
			err = ErrLabelMoved(label)
			return
		}
	}

	return
}

// link replaces a label in the branch target position with its address.
func (asm *Assembler) link(words []string) []string {
	op, ok := Lookup(words[0])
	if !ok {
		return words
	}

	info := op.Info()
	if info.Family != FAMILY_BRANCH || len(words) <= info.Args {
		return words
	}

	addr, ok := asm.Label[words[info.Args]]
	if ok {
		words[info.Args] = strconv.Itoa(addr)
	}

	return words
}

// sizeOf returns the encoded size of the words.
// If the words do not encode yet, the size implied by the mnemonic is used.
func (asm *Assembler) sizeOf(words []string) (size int) {
	codes, err := asm.parseWords(words)
	if err == nil {
		for _, code := range codes {
			size += code.Len()
		}
		return
	}

	op, ok := Lookup(words[0])
	if !ok {
		return
	}

	info := op.Info()
	size = info.Length()
	if info.Family == FAMILY_IMMEDIATE && len(words) > 1 {
		_, rerr := asm.registerOf(words[1])
		if rerr == nil {
			size += OP_FROM_REG.Info().Length()
		}
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	var lines []string
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	asm.Opcode = asm.Opcode[:0]
	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	// Pass 1: equates, and label addresses.
	addr := 0
	for n, text := range lines {
		lineno = n + 1
		line = text

		words, perr := asm.parseLine(text, lineno)
		if len(words) > 0 && words[0] == ".equ" {
			if perr != nil {
				err = perr
				return
			}
			err = asm.parseEquate(words)
			if err != nil {
				return
			}
			continue
		}

		words, err = asm.parseLabels(words, addr)
		if err != nil {
			return
		}

		if len(words) == 0 {
			continue
		}

		addr += asm.sizeOf(asm.link(words))
	}

	// Pass 2: link and encode.
	addr = 0
	for n, text := range lines {
		lineno = n + 1
		line = text

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		var words []string
		words, err = asm.parseLine(text, lineno)
		if err != nil {
			return
		}

		if len(words) == 0 || words[0] == ".equ" {
			continue
		}

		words, err = asm.checkLabels(words, addr)
		if err != nil {
			return
		}
		if len(words) == 0 {
			continue
		}

		words = asm.link(words)

		var codes []Code
		codes, err = asm.parseWords(words)
		if err != nil {
			return
		}

		opcode := Opcode{LineNo: lineno, Addr: addr, Words: words, Codes: codes}
		for i := range opcode.Codes {
			opcode.Codes[i].Addr = uint8(addr)
			addr += opcode.Codes[i].Len()
		}

		asm.Opcode = append(asm.Opcode, opcode)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// parseWords encodes the words of a single instruction.
func (asm *Assembler) parseWords(words []string) (codes []Code, err error) {
	op, ok := Lookup(words[0])
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	info := op.Info()
	args := words[1:]
	if len(args) < info.Args {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > info.Args {
		err = ErrOpcodeExtraArgs
		return
	}

	switch info.Family {
	case FAMILY_FIXED:
		codes = append(codes, MakeCode(op))
	case FAMILY_REGISTER:
		var reg int
		reg, err = asm.registerOf(args[0])
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(op, uint16(reg)))
	case FAMILY_IMMEDIATE:
		reg, rerr := asm.registerOf(args[0])
		if rerr == nil {
			// op REG => from-reg REG; op 0
			codes = append(codes,
				MakeCode(OP_FROM_REG, uint16(reg)),
				MakeCode(op, 0),
			)
			return
		}
		var value uint16
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(op, value))
	case FAMILY_INLINE, FAMILY_NIBBLE:
		var value uint16
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(op, value))
	case FAMILY_BRANCH:
		values := make([]uint16, len(args))
		for n, arg := range args {
			if n == len(args)-1 {
				values[n], err = asm.targetOf(arg)
			} else {
				values[n], err = asm.valueOf(arg)
			}
			if err != nil {
				return
			}
		}
		codes = append(codes, MakeCode(op, values...))
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}

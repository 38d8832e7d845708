// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fenhl/oottracker-go/internal/oot"
)

// Classifier answers the lookups the Name-resolution priority order in
// SPEC_FULL.md §4.5 needs: whether an identifier is a logic helper (and
// its arity), an escaped item alias, a known setting, or a known trick.
type Classifier interface {
	HelperArity(name string) (arity int, ok bool)
	ItemAlias(name string) (itemName string, ok bool)
	IsSetting(name string) bool
	IsTrick(name string) bool
}

// ParseError is a fatal parse error carrying the offending token/position,
// matching SPEC_FULL.md §4.5's requirement that unclassifiable identifiers
// surface the original text rather than fail silently.
type ParseError struct {
	Message string
	Pos     int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rules: parse error at %d: %s", e.Pos, e.Message)
}

var sentinelTrials = map[string]oot.Medallion{
	"Light":  oot.MedallionLight,
	"Forest": oot.MedallionForest,
	"Fire":   oot.MedallionFire,
	"Water":  oot.MedallionWater,
	"Shadow": oot.MedallionShadow,
	"Spirit": oot.MedallionSpirit,
}

// Parser parses one rule source string at a time against a fixed
// Classifier. A Parser is not safe for concurrent use; callers parse one
// rule body at a time (construct one per call, or reuse serially).
type Parser struct {
	classifier Classifier

	// helperParams is non-nil while parsing inside a logic helper's body,
	// giving Name resolution priority to helper parameters.
	helperParams map[string]struct{}

	// anonCtx names the parent check this parse belongs to, for
	// AnonymousEvent numbering; anonSeq increments per at()/here() call.
	anonCtx string
	anonSeq int

	src  []rune
	pos  int
}

// NewParser returns a parser for parsing rule bodies belonging to
// parentCheck (used to number at()/here() anonymous events), classifying
// identifiers against classifier.
func NewParser(classifier Classifier, parentCheck string) *Parser {
	return &Parser{classifier: classifier, anonCtx: parentCheck}
}

// ParseHelperBody returns a parser configured to resolve params as helper
// parameters while parsing a logic helper's body.
func (p *Parser) ParseHelperBody(params []string) *Parser {
	np := &Parser{classifier: p.classifier, anonCtx: p.anonCtx}
	np.helperParams = make(map[string]struct{}, len(params))
	for _, n := range params {
		np.helperParams[n] = struct{}{}
	}
	return np
}

// Parse parses src as a single boolean expression rule.
func (p *Parser) Parse(src string) (Expr, error) {
	p.src = []rune(src)
	p.pos = 0
	p.skipSpace()
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, &ParseError{Message: "trailing input: " + string(p.src[p.pos:]), Pos: p.pos}
	}
	return e, nil
}

func (p *Parser) parseOr() (Expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Expr{first}
	for p.consumeKeyword("or") {
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return Any{Children: children}, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	children := []Expr{first}
	for p.consumeKeyword("and") {
		next, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return All{Children: children}, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.consumeKeyword("not") {
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Child: child}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	var terms []Expr
	left := first
	for {
		p.skipSpace()
		var negate bool
		switch {
		case p.consumeLiteral("=="):
			negate = false
		case p.consumeLiteral("!="):
			negate = true
		default:
			if len(terms) == 0 {
				return first, nil
			}
			if len(terms) == 1 {
				return terms[0], nil
			}
			return All{Children: terms}, nil
		}
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		var term Expr = Eq{Left: left, Right: right}
		if negate {
			term = Not{Child: term}
		}
		terms = append(terms, term)
		left = right
	}
}

func (p *Parser) parseAtom() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, &ParseError{Message: "unexpected end of input", Pos: p.pos}
	}
	switch {
	case p.consumeLiteral("("):
		first, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.consumeLiteral(",") {
			second, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			p.consumeLiteral(",") // tolerate trailing comma
			if !p.consumeLiteral(")") {
				return nil, &ParseError{Message: "expected )", Pos: p.pos}
			}
			return p.makeTuple(first, second)
		}
		if !p.consumeLiteral(")") {
			return nil, &ParseError{Message: "expected )", Pos: p.pos}
		}
		return first, nil
	case isDigit(p.peek()):
		return p.parseNumber()
	case p.peek() == '\'' || p.peek() == '"':
		return p.parseString()
	default:
		return p.parseNameLike()
	}
}

func (p *Parser) makeTuple(first, second Expr) (Expr, error) {
	name, ok := literalString(first)
	if !ok {
		return nil, &ParseError{Message: "tuple first element must be a literal item name", Pos: p.pos}
	}
	return Item{Name: name, Count: second}, nil
}

func literalString(e Expr) (string, bool) {
	switch v := e.(type) {
	case LitStr:
		return v.Value, true
	case Item:
		return v.Name, true
	default:
		return "", false
	}
}

func (p *Parser) parseNumber() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	n, err := strconv.Atoi(string(p.src[start:p.pos]))
	if err != nil || n < 0 || n > 255 {
		return nil, &ParseError{Message: "invalid integer literal", Pos: start}
	}
	return LitInt{Value: uint8(n)}, nil
}

func (p *Parser) parseString() (Expr, error) {
	quote := p.src[p.pos]
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != quote {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return nil, &ParseError{Message: "unterminated string literal", Pos: start}
	}
	value := string(p.src[start:p.pos])
	p.pos++ // closing quote

	// a string Constant becomes Item(x,1) if x names a known item,
	// otherwise LitStr(x) (SPEC_FULL.md §4.5, Constant(string) rule).
	if itemName, ok := p.classifier.ItemAlias(value); ok {
		return Item{Name: itemName, Count: LitInt{Value: 1}}, nil
	}
	return LitStr{Value: value}, nil
}

func (p *Parser) parseNameLike() (Expr, error) {
	start := p.pos
	if !isIdentStart(p.peek()) {
		return nil, &ParseError{Message: fmt.Sprintf("unexpected character %q", string(p.peek())), Pos: p.pos}
	}
	for p.pos < len(p.src) && isIdentCont(p.src[p.pos]) {
		p.pos++
	}
	name := string(p.src[start:p.pos])

	p.skipSpace()
	switch {
	case p.consumeLiteral("("):
		return p.parseCall(name)
	case p.consumeLiteral("["):
		return p.parseSubscript(name)
	default:
		return p.resolveName(name)
	}
}

func (p *Parser) parseCall(name string) (Expr, error) {
	var args []Expr
	p.skipSpace()
	if !p.consumeLiteral(")") {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.consumeLiteral(",") {
				continue
			}
			if p.consumeLiteral(")") {
				break
			}
			return nil, &ParseError{Message: "expected , or )", Pos: p.pos}
		}
	}

	switch name {
	case "at", "here":
		p.anonSeq++
		return AnonymousEvent{Parent: p.anonCtx, ID: p.anonSeq}, nil
	case "has_dungeon_rewards":
		if len(args) != 1 {
			return nil, &ParseError{Message: "has_dungeon_rewards takes exactly one argument", Pos: p.pos}
		}
		return HasDungeonRewards{Count: args[0]}, nil
	case "has_medallions":
		if len(args) != 1 {
			return nil, &ParseError{Message: "has_medallions takes exactly one argument", Pos: p.pos}
		}
		return HasMedallions{Count: args[0]}, nil
	case "has_stones":
		if len(args) != 1 {
			return nil, &ParseError{Message: "has_stones takes exactly one argument", Pos: p.pos}
		}
		return HasStones{Count: args[0]}, nil
	}

	if arity, ok := p.classifier.HelperArity(name); ok {
		if arity != len(args) {
			return nil, &ParseError{Message: fmt.Sprintf("helper %s expects %d args, got %d", name, arity, len(args)), Pos: p.pos}
		}
		return LogicHelper{Name: name, Args: args}, nil
	}

	return nil, &ParseError{Message: fmt.Sprintf("unknown callable %q", name), Pos: p.pos}
}

func (p *Parser) parseSubscript(name string) (Expr, error) {
	p.skipSpace()
	key, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.consumeLiteral("]") {
		return nil, &ParseError{Message: "expected ]", Pos: p.pos}
	}
	if name != "skipped_trials" {
		return nil, &ParseError{Message: fmt.Sprintf("unsupported subscript target %q", name), Pos: p.pos}
	}
	lit, ok := literalString(key)
	if !ok {
		return nil, &ParseError{Message: "skipped_trials subscript must be a literal trial name", Pos: p.pos}
	}
	med, ok := sentinelTrials[lit]
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("unknown trial %q", lit), Pos: p.pos}
	}
	return Not{Child: TrialActive{Medallion: med}}, nil
}

func (p *Parser) resolveName(name string) (Expr, error) {
	if p.helperParams != nil {
		if _, ok := p.helperParams[name]; ok {
			return Param{Name: name}, nil
		}
	}
	switch name {
	case "True":
		return True{}, nil
	case "False":
		return Not{Child: True{}}, nil
	case "at_day":
		return Time{Range: TimeDay}, nil
	case "at_night":
		return Time{Range: TimeNight}, nil
	case "at_dampe_time":
		return Time{Range: TimeDampe}, nil
	case "age":
		return Age{}, nil
	case "starting_age":
		return StartingAge{}, nil
	case "adult":
		return LitStr{Value: "adult"}, nil
	case "child":
		return ForAge{Kind: ForAgeChild}, nil
	case "both":
		return ForAge{Kind: ForAgeBoth}, nil
	case "either":
		return ForAge{Kind: ForAgeEither}, nil
	case "lacs_condition":
		return LacsCondition{}, nil
	}
	if arity, ok := p.classifier.HelperArity(name); ok && arity == 0 {
		return LogicHelper{Name: name}, nil
	}
	if itemName, ok := p.classifier.ItemAlias(name); ok {
		return Item{Name: itemName, Count: LitInt{Value: 1}}, nil
	}
	if p.classifier.IsSetting(name) {
		return Setting{Name: name}, nil
	}
	if p.classifier.IsTrick(name) {
		return Trick{Name: name}, nil
	}
	if med, ok := sentinelTrials[name]; ok {
		return TrialActive{Medallion: med}, nil
	}
	if isEventIdent(name) {
		return Event{Name: strings.ReplaceAll(name, "_", " ")}, nil
	}
	return nil, &ParseError{Message: fmt.Sprintf("cannot classify identifier %q", name), Pos: p.pos}
}

func isEventIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isIdentCont(r) {
			return false
		}
	}
	return true
}

// --- lexing helpers ---

func (p *Parser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *Parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == '\r') {
		p.pos++
	}
}

func (p *Parser) consumeLiteral(lit string) bool {
	p.skipSpace()
	r := []rune(lit)
	if p.pos+len(r) > len(p.src) {
		return false
	}
	for i, c := range r {
		if p.src[p.pos+i] != c {
			return false
		}
	}
	p.pos += len(r)
	return true
}

// consumeKeyword consumes lit only when not immediately followed by an
// identifier continuation character (so "order" doesn't match "or").
func (p *Parser) consumeKeyword(lit string) bool {
	p.skipSpace()
	save := p.pos
	if !p.consumeLiteral(lit) {
		return false
	}
	if p.pos < len(p.src) && isIdentCont(p.src[p.pos]) {
		p.pos = save
		return false
	}
	return true
}

func isDigit(r rune) bool      { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isIdentCont(r rune) bool  { return isIdentStart(r) || isDigit(r) }

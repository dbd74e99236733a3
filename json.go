package curves

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ============================================================
// JSON Serialization
// ============================================================

// ErrNotSerializable is returned for callables outside the named function
// table, which have no portable representation.
var ErrNotSerializable = errors.New("curves: curve is not serializable")

// ToJSON encodes c as a JSON object string.
func ToJSON(c *Curve) (string, error) {
	m, err := Marshal(c)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(m)
	return string(b), err
}

// Marshal converts c into the object form read by FromJSON. Curves without
// operations and with a leaf payload are written as that leaf, except where
// they are the payload of another node.
func Marshal(c *Curve) (map[string]interface{}, error) { return marshalNode(c, true) }

func marshalNode(c *Curve, leaf bool) (map[string]interface{}, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil curve", ErrNotSerializable)
	}
	p, err := marshalPayload(c.payload)
	if err != nil {
		return nil, err
	}
	if _, isNested := c.payload.(nested); leaf && !isNested && c.op == OpNone && len(c.pending) == 0 && c.id == "" {
		return p, nil
	}
	out := map[string]interface{}{"type": "curve", "payload": p}
	if c.id != "" {
		out["id"] = c.id
	}
	if c.op != OpNone {
		out["op"] = c.op.String()
		if err := marshalOperand(out, c.op, c.operand, c.exp); err != nil {
			return nil, err
		}
	}
	if len(c.pending) > 0 {
		ps := make([]interface{}, len(c.pending))
		for i, po := range c.pending {
			m := map[string]interface{}{"op": po.Op.String()}
			if err := marshalOperand(m, po.Op, po.Operand, po.Exponent); err != nil {
				return nil, err
			}
			ps[i] = m
		}
		out["pending"] = ps
	}
	return out, nil
}

func marshalOperand(m map[string]interface{}, op Op, operand *Curve, exp float64) error {
	switch op {
	case OpNeg, OpAbs:
		return nil
	case OpPow:
		m["exponent"] = exp
		return nil
	}
	o, err := Marshal(operand)
	if err != nil {
		return err
	}
	m["operand"] = o
	return nil
}

func marshalPayload(p payload) (map[string]interface{}, error) {
	switch v := p.(type) {
	case identity:
		return map[string]interface{}{"type": "identity"}, nil
	case constant:
		return map[string]interface{}{"type": "const", "value": float64(v)}, nil
	case variable:
		return map[string]interface{}{"type": "var", "name": string(v)}, nil
	case callable:
		if f, ok := functions[v.name]; ok && f.payload.equal(v) {
			return map[string]interface{}{"type": "func", "name": v.name}, nil
		}
		return nil, fmt.Errorf("%w: callable %s is not a named function", ErrNotSerializable, v.name)
	case nested:
		return marshalNode(v.c, false)
	}
	return nil, fmt.Errorf("%w: payload %T", ErrNotSerializable, p)
}

// FromJSON decodes a curve written by Marshal. Identifiers are ignored; use
// Decode to register them.
func FromJSON(data map[string]interface{}) (*Curve, error) { return Decode(data, nil) }

// Decode is FromJSON that registers identified nodes in reg when reg is
// not nil.
func Decode(data map[string]interface{}, reg *Registry) (*Curve, error) {
	if data == nil {
		return nil, fmt.Errorf("curve must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}
	if typ != "curve" {
		p, err := decodeLeaf(typ, data)
		if err != nil {
			return nil, err
		}
		return &Curve{payload: p}, nil
	}

	subObj := func(m map[string]interface{}, field string) (map[string]interface{}, error) {
		v, ok := m[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		o, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		return o, nil
	}
	operandOf := func(m map[string]interface{}, op Op) (*Curve, float64, error) {
		switch op {
		case OpNone, OpNeg, OpAbs:
			return nil, 0, nil
		case OpPow:
			e, ok := toFloat(m["exponent"])
			if !ok {
				return nil, 0, fmt.Errorf("%s: pow requires a numeric \"exponent\"", typ)
			}
			return nil, e, nil
		}
		o, err := subObj(m, "operand")
		if err != nil {
			return nil, 0, err
		}
		c, err := Decode(o, reg)
		return c, 0, err
	}
	opOf := func(m map[string]interface{}) (Op, error) {
		s, ok := m["op"].(string)
		if !ok {
			return OpNone, fmt.Errorf("%s: \"op\" must be a string", typ)
		}
		return ParseOp(s)
	}

	pObj, err := subObj(data, "payload")
	if err != nil {
		return nil, err
	}
	c := &Curve{}
	if pt, _ := pObj["type"].(string); pt == "curve" {
		inner, err := Decode(pObj, reg)
		if err != nil {
			return nil, err
		}
		c.payload = nested{inner}
	} else {
		p, err := decodeLeaf(pt, pObj)
		if err != nil {
			return nil, err
		}
		c.payload = p
	}

	if _, ok := data["op"]; ok {
		if c.op, err = opOf(data); err != nil {
			return nil, err
		}
		if c.operand, c.exp, err = operandOf(data, c.op); err != nil {
			return nil, err
		}
	}

	if raw, ok := data["pending"]; ok {
		arr, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: \"pending\" must be an array", typ)
		}
		for i, r := range arr {
			m, ok := r.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: pending[%d] must be an object", typ, i)
			}
			op, err := opOf(m)
			if err != nil {
				return nil, err
			}
			if op == OpNone || op == OpNeg || op == OpAbs {
				return nil, fmt.Errorf("%s: pending[%d]: %s cannot be applied in place", typ, i, op)
			}
			operand, exp, err := operandOf(m, op)
			if err != nil {
				return nil, err
			}
			c.pending = append(c.pending, PendingOp{Op: op, Operand: operand, Exponent: exp})
		}
	}

	if id, _ := data["id"].(string); id != "" && reg != nil {
		return reg.Named(id, c)
	}
	return c, nil
}

func decodeLeaf(typ string, data map[string]interface{}) (payload, error) {
	switch typ {
	case "identity":
		return identity{}, nil
	case "const":
		v, ok := toFloat(data["value"])
		if !ok {
			return nil, fmt.Errorf("const: \"value\" must be a number")
		}
		return constant(v), nil
	case "var":
		name, ok := data["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("var: \"name\" must be a non-empty string")
		}
		return variable(name), nil
	case "func":
		name, _ := data["name"].(string)
		f, ok := functions[name]
		if !ok {
			return nil, fmt.Errorf("func: unknown function %q", name)
		}
		return f.payload, nil
	}
	return nil, fmt.Errorf("unknown curve type: %q", typ)
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultValueCanonical(t *testing.T) {
	text := ResultValue{Type: ValueText, Text: "猫"}
	assert.Equal(t, "猫", text.Canonical())

	list := ResultValue{Type: ValueList, List: []string{"a", "b"}}
	assert.Equal(t, `["a","b"]`, list.Canonical())

	structured := ResultValue{Type: ValueStructured, Raw: json.RawMessage(`{"x":1}`)}
	assert.Equal(t, `{"x":1}`, structured.Canonical())
}

func TestResultValueRoundTrip(t *testing.T) {
	cases := []ResultValue{
		{Type: ValueText, Text: "label-a"},
		{Type: ValueList, List: []string{"b", "a"}},
		{Type: ValueStructured, Raw: json.RawMessage(`{"box":[1,2,3,4]}`)},
	}

	// 写入结果记录后读出的比对值与提交载荷的归一化值一致
	for _, v := range cases {
		var r QuestionResult
		v.ApplyTo(&r)
		assert.Equal(t, v.Canonical(), r.CanonicalValue(), "type=%s", v.Type)
	}
}

func TestApplyToClearsStaleFields(t *testing.T) {
	r := QuestionResult{ValueType: ValueText, ValueText: "old"}

	list := ResultValue{Type: ValueList, List: []string{"x"}}
	list.ApplyTo(&r)
	assert.Equal(t, ValueList, r.ValueType)
	assert.Empty(t, r.ValueText)
	assert.JSONEq(t, `["x"]`, string(r.ValueJSON))

	text := ResultValue{Type: ValueText, Text: "new"}
	text.ApplyTo(&r)
	assert.Equal(t, ValueText, r.ValueType)
	assert.Equal(t, "new", r.ValueText)
	assert.Nil(t, r.ValueJSON)
}

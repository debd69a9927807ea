package model

import (
	"encoding/json"
	"time"
)

type QuestionDataType string

const (
	DataText  QuestionDataType = "text"
	DataImage QuestionDataType = "image"
	DataVideo QuestionDataType = "video"
)

// Question 任务题目，Seq 在任务内从1开始连续编号
type Question struct {
	BaseModel
	TaskID   uint             `gorm:"uniqueIndex:idx_task_seq;not null" json:"taskId"`
	Seq      int              `gorm:"uniqueIndex:idx_task_seq;not null" json:"seq"`
	DataType QuestionDataType `gorm:"size:10;default:'text'" json:"dataType"`
	DataRef  string           `gorm:"size:500" json:"dataRef"` // 题目内容引用（文本或存储对象地址）
	Options  json.RawMessage  `gorm:"type:json" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// AnswerKeyEntry 标准答案，仅 auto 验收任务需要
type AnswerKeyEntry struct {
	BaseModel
	TaskID      uint   `gorm:"uniqueIndex:idx_key_task_seq;not null" json:"taskId"`
	QuestionSeq int    `gorm:"uniqueIndex:idx_key_task_seq;not null" json:"questionSeq"`
	Value       string `gorm:"type:text;not null" json:"value"`
}

func (AnswerKeyEntry) TableName() string {
	return "answer_key_entries"
}

type ResultValueType string

const (
	ValueText       ResultValueType = "text"
	ValueList       ResultValueType = "list"
	ValueStructured ResultValueType = "structured"
)

// QuestionResult 标注结果。FinishedAt 为空表示已开始未提交，
// 同一 (题目, 标注者) 至多一条已提交结果。
type QuestionResult struct {
	BaseModel
	TaskID      uint            `gorm:"uniqueIndex:idx_result_owner;not null" json:"taskId"`
	QuestionSeq int             `gorm:"uniqueIndex:idx_result_owner;not null" json:"questionSeq"`
	TaggerID    uint            `gorm:"uniqueIndex:idx_result_owner;not null" json:"taggerId"`
	ValueType   ResultValueType `gorm:"size:16;default:'text'" json:"valueType"`
	ValueText   string          `gorm:"type:text" json:"valueText,omitempty"`
	ValueJSON   json.RawMessage `gorm:"type:json" json:"valueJson,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	FinishedAt  *time.Time      `json:"finishedAt"`
}

func (QuestionResult) TableName() string {
	return "question_results"
}

// ResultValue 提交时的结果载荷，按类型取其一
type ResultValue struct {
	Type ResultValueType `json:"type" binding:"required,oneof=text list structured"`
	Text string          `json:"text,omitempty"`
	List []string        `json:"list,omitempty"`
	Raw  json.RawMessage `json:"raw,omitempty"`
}

// Canonical 归一化为可与标准答案比对的字符串
func (v ResultValue) Canonical() string {
	switch v.Type {
	case ValueList:
		b, _ := json.Marshal(v.List)
		return string(b)
	case ValueStructured:
		return string(v.Raw)
	default:
		return v.Text
	}
}

// ApplyTo 将载荷写入结果记录
func (v ResultValue) ApplyTo(r *QuestionResult) {
	r.ValueType = v.Type
	switch v.Type {
	case ValueList:
		b, _ := json.Marshal(v.List)
		r.ValueText = ""
		r.ValueJSON = b
	case ValueStructured:
		r.ValueText = ""
		r.ValueJSON = v.Raw
	default:
		r.ValueText = v.Text
		r.ValueJSON = nil
	}
}

// CanonicalValue 读取结果记录的归一化比对值
func (r *QuestionResult) CanonicalValue() string {
	if r.ValueType == ValueText {
		return r.ValueText
	}
	return string(r.ValueJSON)
}

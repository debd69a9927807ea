package model

type AssignmentState string

const (
	StateNotHandled    AssignmentState = "not_handled"
	StateAccepted      AssignmentState = "accepted"
	StateRefused       AssignmentState = "refused"
	StateFinished      AssignmentState = "finished"
	StateCheckAccepted AssignmentState = "check_accepted"
	StateCheckRefused  AssignmentState = "check_refused"
)

// AcceptedAtRefused 标注者明确拒绝后的哨兵值，表示不再重新分发给该人
const AcceptedAtRefused int64 = -1

type CheckPass string

const (
	CheckPassNone CheckPass = ""
	CheckPassOK   CheckPass = "pass"
	CheckPassFail CheckPass = "fail"
)

// Assignment 任务与标注者的分配关系，一对 (task, tagger) 至多一条
type Assignment struct {
	BaseModel
	TaskID     uint            `gorm:"uniqueIndex:idx_task_tagger;not null" json:"taskId"`
	TaggerID   uint            `gorm:"uniqueIndex:idx_task_tagger;not null" json:"taggerId"`
	AcceptedAt int64           `gorm:"default:0" json:"acceptedAt"` // unix秒；0未接受，-1明确拒绝
	State      AssignmentState `gorm:"size:20;default:'not_handled';index" json:"state"`
	CheckPass  CheckPass       `gorm:"size:10;default:''" json:"checkPass"` // 人工验收的标记，不驱动状态机
}

func (Assignment) TableName() string {
	return "assignments"
}

// ValidStates 计入分发名额的状态
var ValidStates = []AssignmentState{StateNotHandled, StateAccepted, StateFinished, StateCheckAccepted}

// InvalidStates 永久排除、不再重新分发的状态
var InvalidStates = []AssignmentState{StateRefused, StateCheckRefused}

// IsValidState 该分配是否占用任务名额
func (a *Assignment) IsValidState() bool {
	switch a.State {
	case StateRefused, StateCheckRefused:
		return false
	}
	return true
}

// TagProgress 标注进度游标，NextSeq 为下一题编号，0 表示全部完成
type TagProgress struct {
	BaseModel
	TaskID   uint `gorm:"uniqueIndex:idx_progress_owner;not null" json:"taskId"`
	TaggerID uint `gorm:"uniqueIndex:idx_progress_owner;not null" json:"taggerId"`
	NextSeq  int  `gorm:"default:1" json:"nextSeq"`
}

func (TagProgress) TableName() string {
	return "tag_progresses"
}

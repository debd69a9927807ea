package model

type TaskStrategy string

const (
	StrategyOrder TaskStrategy = "order" // 平台按轮转顺序推送给固定数量的标注者
	StrategyToAll TaskStrategy = "toall" // 所有标注者可自行领取，先到先得
)

type AcceptMethod string

const (
	AcceptManual AcceptMethod = "manual" // 发布方抽样人工验收
	AcceptAuto   AcceptMethod = "auto"   // 按标准答案自动验收
)

type CheckResult string

const (
	CheckWait   CheckResult = "wait"   // 等待平台审核
	CheckAccept CheckResult = "accept" // 审核通过，可以分发
	CheckRefuse CheckResult = "refuse" // 审核驳回
)

// LabelTask 标注任务
type LabelTask struct {
	BaseModel
	PublisherID       uint         `gorm:"index;not null" json:"publisherId"`
	Title             string       `gorm:"size:255;not null" json:"title"`
	Description       string       `gorm:"type:text" json:"description"`
	Category          string       `gorm:"size:50;index" json:"category"`
	Strategy          TaskStrategy `gorm:"size:10;default:'order'" json:"strategy"`
	AcceptMethod      AcceptMethod `gorm:"size:10;default:'manual'" json:"acceptMethod"`
	CheckResult       CheckResult  `gorm:"size:10;default:'wait';index" json:"checkResult"`
	DistributeUserNum int          `gorm:"not null" json:"distributeUserNum"`
	RewardPerQuestion int          `gorm:"not null" json:"rewardPerQuestion"`
	QuestionCount     int          `gorm:"not null" json:"questionCount"`
	TimePerQuestion   int          `gorm:"default:0" json:"timePerQuestion"` // 单题限时（秒），0为不限时

	Questions []Question       `gorm:"foreignKey:TaskID" json:"questions,omitempty"`
	AnswerKey []AnswerKeyEntry `gorm:"foreignKey:TaskID" json:"-"`
}

func (LabelTask) TableName() string {
	return "label_tasks"
}

// RequiredScore 分发前需要冻结的积分：单题报酬 * 题数 * 分发人数
func (t *LabelTask) RequiredScore() int {
	return t.RewardPerQuestion * t.QuestionCount * t.DistributeUserNum
}

// RewardTotal 单个标注者完成全部题目的报酬
func (t *LabelTask) RewardTotal() int {
	return t.RewardPerQuestion * t.QuestionCount
}

// RotationCursor 全局轮转游标，单行记录，保存上一次选中的标注者ID
type RotationCursor struct {
	ID    uint `gorm:"primaryKey" json:"id"`
	Value uint `gorm:"not null;default:0" json:"value"`
}

func (RotationCursor) TableName() string {
	return "rotation_cursors"
}

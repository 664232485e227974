package domain

// FindingType 检测结果类型（封闭枚举）
type FindingType string

const (
	FindingDiscordWebhook        FindingType = "discord_webhook"         // Discord Webhook 外传通道
	FindingObfuscationRandomName FindingType = "obfuscation_random_name" // 随机化标识符
	FindingObfuscationUnicode    FindingType = "obfuscation_unicode"     // Unicode 垃圾字符命名
	FindingObfuscationString     FindingType = "obfuscation_string"      // 加密/混淆字符串
)

// FindingTypes 固定的类型顺序，用于评分说明的输出顺序
var FindingTypes = []FindingType{
	FindingDiscordWebhook,
	FindingObfuscationUnicode,
	FindingObfuscationRandomName,
	FindingObfuscationString,
}

// BaseScore 单次出现的权重
func (t FindingType) BaseScore() int {
	switch t {
	case FindingDiscordWebhook:
		return 10
	case FindingObfuscationUnicode:
		return 3
	case FindingObfuscationString:
		return 2
	case FindingObfuscationRandomName:
		return 1
	default:
		return 0
	}
}

// MaxContribution 该类型对危险评分的最大贡献
func (t FindingType) MaxContribution() int {
	switch t {
	case FindingDiscordWebhook:
		return 10
	case FindingObfuscationUnicode:
		return 8
	case FindingObfuscationString:
		return 8
	case FindingObfuscationRandomName:
		return 5
	default:
		return 0
	}
}

func (t FindingType) String() string {
	return string(t)
}

// Finding 单条检测结果
type Finding struct {
	Type    FindingType `json:"type"`
	Message string      `json:"message"` // 截断后的简短描述，不包含完整原始字符串
}

// Findings 检测结果集合。缓存命中时多个 ScanResult 共享同一个切片，写入后不可修改
type Findings []Finding

// CountByType 按类型统计数量
func (f Findings) CountByType() map[FindingType]int {
	counts := make(map[FindingType]int, len(FindingTypes))
	for _, finding := range f {
		counts[finding.Type]++
	}
	return counts
}

// Has 是否包含指定类型
func (f Findings) Has(t FindingType) bool {
	for _, finding := range f {
		if finding.Type == t {
			return true
		}
	}
	return false
}

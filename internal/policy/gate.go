package policy

// Operation 受角色控制的操作
type Operation int

const (
	OpClassify        Operation = iota // 仅识别，不落库
	OpPersistAnalysis                  // 保存识别记录与图片
	OpReadHistory                      // 查询识别历史
	OpReadStats                        // 查询统计与分类占比
	OpReadUsers                        // 查询用户表
)

func (o Operation) String() string {
	switch o {
	case OpClassify:
		return "classify"
	case OpPersistAnalysis:
		return "persist_analysis"
	case OpReadHistory:
		return "read_history"
	case OpReadStats:
		return "read_stats"
	case OpReadUsers:
		return "read_users"
	default:
		return "unknown"
	}
}

// OwnerFilter 读操作的行过滤条件：仅返回 user_id = OwnerID 的记录
type OwnerFilter struct {
	OwnerID uint
}

// Decision 授权结果
// Filter 为 nil 表示不过滤（仅 admin 读操作）
type Decision struct {
	Allowed bool
	Filter  *OwnerFilter
	Reason  string
}

// 拒绝原因
const (
	ReasonUnknownRole   = "unknown role"
	ReasonGuest         = "guest access denied"
	ReasonNotOwner      = "not the record owner"
	ReasonAdminOnly     = "admin only"
	ReasonMissingCaller = "missing caller id"
)

func allow(filter *OwnerFilter) Decision { return Decision{Allowed: true, Filter: filter} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize 纯函数：根据操作、角色、调用方 ID 与记录归属 ID 给出授权结果
//   - admin: 全部允许，读操作不过滤
//   - user: 允许识别；仅能保存归属自己的记录；读历史/统计按本人过滤；不能读用户表
//   - guest: 仅允许识别
//   - 未知角色: 全部拒绝，由调用方记录违规日志
func Authorize(op Operation, role Role, callerID, ownerID uint) Decision {
	switch role {
	case RoleAdmin:
		return allow(nil)

	case RoleUser:
		switch op {
		case OpClassify:
			return allow(nil)
		case OpPersistAnalysis:
			if callerID == 0 {
				return deny(ReasonMissingCaller)
			}
			if ownerID != callerID {
				return deny(ReasonNotOwner)
			}
			return allow(nil)
		case OpReadHistory, OpReadStats:
			if callerID == 0 {
				return deny(ReasonMissingCaller)
			}
			return allow(&OwnerFilter{OwnerID: callerID})
		case OpReadUsers:
			return deny(ReasonAdminOnly)
		}
		return deny(ReasonAdminOnly)

	case RoleGuest:
		if op == OpClassify {
			return allow(nil)
		}
		return deny(ReasonGuest)

	default:
		return deny(ReasonUnknownRole)
	}
}

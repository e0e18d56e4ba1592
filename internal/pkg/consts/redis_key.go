package consts

const (
	// ConversationChannelKey 单会话实时推送频道前缀
	ConversationChannelKey = "concierge:conversation:"
	// OperatorChannelKey 运营端聚合推送频道 (全部会话)
	OperatorChannelKey = "concierge:inbox:operator"
)

const (
	CalibrationLockKey = "concierge:calibration:lock"
)

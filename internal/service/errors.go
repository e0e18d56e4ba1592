package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid         = errors.New("参数错误")
	ErrContentEmpty         = errors.New("消息内容不能为空")
	ErrRoleInvalid          = errors.New("角色标识无效")
	ErrConversationNotFound = errors.New("会话不存在")
	ErrConversationArchived = errors.New("会话已归档")
	ErrNotParticipant       = errors.New("无权访问该会话")
	ErrTargetClientInvalid  = errors.New("目标客户无效")
	ErrChannelUnavailable   = errors.New("实时通道暂不可用，请稍后重试")
	UnauthorizedError       = errors.New("权限不足")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         BadRequest,
	ErrContentEmpty:         BadRequest,
	ErrRoleInvalid:          BadRequest,
	ErrConversationNotFound: NotFound,
	ErrConversationArchived: NotFound,
	ErrNotParticipant:       Forbidden,
	ErrTargetClientInvalid:  BadRequest,
	ErrChannelUnavailable:   ServiceUnavailable,
	UnauthorizedError:       Unauthorized,
	UnExpectedError:         InternalServerError,
}

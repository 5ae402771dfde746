package constants

const (
	CHANNEL_SIZE = 100 // 通道大小

	SYSTEM_USER_ID   = "sys-flash-id" // 官方系统账号 ID（客服收件箱）
	SYSTEM_USER_NAME = "Flash"        // 官方系统账号昵称，注册时保留

	COLLECTION_USERS    = "users"    // 用户集合
	COLLECTION_MESSAGES = "messages" // 消息集合

	CURRENT_USER_SLOT = "flash_current_user" // 本地缓存中当前登录用户的槽位名

	USER_AVATAR_URL = "https://api.dicebear.com/7.x/avataaars/svg?seed=" // 普通用户头像
	BOT_AVATAR_URL  = "https://api.dicebear.com/7.x/bottts/svg?seed="    // 机器人头像
	SYSTEM_AVATAR   = "https://api.dicebear.com/7.x/bottts/svg?seed=Flash&backgroundColor=b6e3f4"

	SUPPORT_SESSION_PREFIX = "session-support-" // 客服会话 ID 前缀
	INBOX_SESSION_PREFIX   = "sess-"            // 系统账号收件箱会话 ID 前缀
	BOT_ID_PREFIX          = "bot-"             // 机器人用户 ID 前缀
	BOT_MESSAGE_PREFIX     = "bot-msg-"         // 机器人回复消息 ID 前缀

	REPLY_BUSY_TEXT     = "Sorry, I'm a bit busy right now! ⚡"                        // 模型返回空文本
	REPLY_FALLBACK_TEXT = "Flash is lightning fast, but my brain lagged! Try again. ⚡" // 模型调用失败
)

package models

// LogEntry 定义了结构化日志的统一数据格式，便于日志采集后在
// Elasticsearch 中解析和检索。
type LogEntry struct {
	// ServiceName 是产生这条日志的服务名称，例如 "memory_service"。
	ServiceName string `json:"service_name"`

	// UserID 标识与此日志事件相关的用户（如果适用）。
	UserID string `json:"user_id,omitempty"`

	// RequestInfo 包含触发此日志的 HTTP 请求的上下文信息。
	RequestInfo *RequestInfo `json:"request_info,omitempty"`

	// Error 包含结构化的错误信息，通常在 Error 级别时填充。
	Error *ErrorInfo `json:"error,omitempty"`

	// Payload 存放其他与业务相关的结构化数据。
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo 存储 HTTP 请求的上下文信息。
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
}

// ErrorInfo 存储结构化的错误信息。
type ErrorInfo struct {
	Message string `json:"message"`
	// Type 是错误的分类，例如 "store_error", "extraction_error"。
	Type string `json:"type,omitempty"`
}

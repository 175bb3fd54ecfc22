package models

// Message — запрос на отправку сообщения через внешний API.
// APIToken передаётся во внешний API как Bearer и никогда не логируется.
type Message struct {
	To       string
	Text     string
	APIURL   string
	APIToken string
}

// DeliveryResult — результат вызова внешнего API.
// При ошибке Error непустой, StatusCode — код апстрима (0, если ответа не было).
type DeliveryResult struct {
	StatusCode int
	Error      string
	Data       map[string]any
}

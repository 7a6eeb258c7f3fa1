package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

type WebhookNotify struct {
	UserUUID  string
	Event     string
	TimeStamp string
}

// NotifyWebhook отправляет уведомление о повторном использовании
// отозванного refresh токена (возможная кража токена).
func NotifyWebhook(webhookURL string, userUUID string) error {
	payload := &WebhookNotify{
		UserUUID:  userUUID,
		Event:     "refresh_token_reuse",
		TimeStamp: time.Now().Format(time.RFC3339),
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка преобразования в json: %w", err)
	}

	response, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("ошибка отправки webhook: %w", err)
	}
	defer response.Body.Close()

	log.Print("webhook успешно отправлен")
	return nil
}

package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultCaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier проверяет токен капчи через внешний сервис.
type RecaptchaVerifier struct {
	secretKey string
	verifyURL string
	client    *http.Client
}

func NewRecaptchaVerifier(secretKey string, verifyURL string) *RecaptchaVerifier {
	if verifyURL == "" {
		verifyURL = defaultCaptchaVerifyURL
	}
	return &RecaptchaVerifier{
		secretKey: secretKey,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (verifier *RecaptchaVerifier) Verify(ctx context.Context, captchaToken string, remoteIP string) (bool, error) {
	form := url.Values{
		"secret":   {verifier.secretKey},
		"response": {captchaToken},
		"remoteip": {remoteIP},
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, verifier.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("ошибка создания запроса проверки капчи: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := verifier.client.Do(request)
	if err != nil {
		return false, fmt.Errorf("ошибка запроса проверки капчи: %w", err)
	}
	defer response.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("ошибка разбора ответа проверки капчи: %w", err)
	}

	return result.Success, nil
}

// DisabledVerifier используется при выключенной капче, любая проверка проходит.
type DisabledVerifier struct{}

func (DisabledVerifier) Verify(ctx context.Context, captchaToken string, remoteIP string) (bool, error) {
	return true, nil
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// Ошибка отсутствующего названия commande.
	ErrNameRequired = errors.New("name is required")
	// Ошибка отрицательного количества.
	ErrQuantityNegative = errors.New("quantity must be non-negative")
	// Ошибка отсутствующего идентификатора клиента при включённом обогащении.
	ErrCustomerRequired = errors.New("customer is required")
	// ErrOrderNotFound возвращается, если commande не найдена в репозитории.
	ErrOrderNotFound = errors.New("commande not found")
	// ErrRateLimited — превышен лимит запросов с адреса клиента.
	ErrRateLimited = errors.New("too many requests")
	// ErrPublishFailed — не удалось отправить уведомление в брокер.
	// Commande к этому моменту уже сохранена (см. NotifyCreated).
	ErrPublishFailed = errors.New("notification publish failed")
)

// Виды внешних ресурсов для NotFoundError. Значения совпадают со словами
// в caller-facing сообщениях ("Produit p1 not found").
const (
	ResourceProduct  = "Produit"
	ResourceCustomer = "Client"
	ResourceOrder    = "Commande"
)

// NotFoundError указывает, какой именно ресурс не удалось разрешить.
// Транспортные сбои внешних каталогов сюда тоже попадают: наблюдаемый
// контракт исходных API не различает "нет ресурса" и "сервис недоступен".
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// IsNotFound проверяет, является ли ошибка отсутствием ресурса любого вида.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, ErrOrderNotFound)
}

// ValidationError агрегирует нарушения входных инвариантов.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

// IsValidation проверяет, является ли ошибка нарушением входных инвариантов.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RateLimitedError несёт подсказку, когда клиенту имеет смысл повторить запрос.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return ErrRateLimited.Error()
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

package intake

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/m3rciful/zalogbot/core/telegram/state"
	"github.com/m3rciful/zalogbot/internal/listing"
)

// ValidationError reports input rejected by the rule of a step.
type ValidationError struct {
	Step state.State
	// Hint is shown to the user.
	Hint string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("intake: %s: %v", short(e.Step), e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Code implements the err_code convention of the logs.
func (e *ValidationError) Code() string { return "VALIDATION" }

func reject(st state.State, hint string, err error) *ValidationError {
	return &ValidationError{Step: st, Hint: hint, Err: err}
}

// apply validates raw for step st and stores it in p.
func (w *Wizard) apply(p *Partial, st state.State, raw string) error {
	v := listing.Validator()
	raw = strings.TrimSpace(raw)
	textRule := fmt.Sprintf("required,notblank,min=%d", w.opts.MinTextLen)
	textHint := fmt.Sprintf("Минимум %d символа.", w.opts.MinTextLen)

	switch st {
	case StepBrand, StepModel, StepCity:
		if err := v.Var(raw, textRule); err != nil {
			return reject(st, textHint, err)
		}
		switch st {
		case StepBrand:
			p.Brand = raw
		case StepModel:
			p.Model = raw
		default:
			p.City = raw
		}

	case StepYear:
		hint := fmt.Sprintf("Год должен быть числом от %d до %d.", w.opts.MinYear, w.maxYear())
		year, err := strconv.Atoi(raw)
		if err != nil {
			return reject(st, hint, err)
		}
		if err := v.Var(year, fmt.Sprintf("gte=%d,lte=%d", w.opts.MinYear, w.maxYear())); err != nil {
			return reject(st, hint, err)
		}
		p.Year = year

	case StepPrice:
		if err := v.Var(raw, "required,notblank"); err != nil {
			return reject(st, "Укажите цену, например: 135 млн.", err)
		}
		p.Price = raw

	case StepPhoto:
		var urls []string
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if err := v.Var(part, "required,http_url"); err != nil {
				return reject(st, "Нужна ссылка, начинающаяся с http:// или https://.", err)
			}
			urls = append(urls, part)
		}
		p.PhotoURL = strings.Join(urls, ",")

	case StepPhone:
		phone := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(raw)
		if err := v.Var(phone, "required,startswith="+w.opts.PhonePrefix+",e164"); err != nil {
			return reject(st, fmt.Sprintf("Номер должен начинаться с %s, например %s901234567.", w.opts.PhonePrefix, w.opts.PhonePrefix), err)
		}
		p.Phone = phone

	case StepContact:
		handle := raw
		for _, prefix := range []string{"https://", "http://", "t.me/", "@"} {
			handle = strings.TrimPrefix(handle, prefix)
		}
		if err := v.Var(handle, "required,tghandle"); err != nil {
			return reject(st, "Ник: от 5 до 32 символов, латинские буквы, цифры и _.", err)
		}
		p.Contact = handle

	case StepLink:
		if raw == "" || raw == "-" {
			p.Link = ""
			return nil
		}
		if err := v.Var(raw, "http_url"); err != nil {
			return reject(st, "Нужна ссылка http(s):// или «-».", err)
		}
		p.Link = raw

	default:
		return reject(st, "", errors.New("step takes no input"))
	}
	return nil
}

// invalidTags lists the failed validator tags of err, for logs.
func invalidTags(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ""
	}
	tags := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		tags = append(tags, fe.Tag())
	}
	return strings.Join(tags, ",")
}

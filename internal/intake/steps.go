// Package intake collects a new listing through a fixed sequence of validated
// prompts and commits it to the store once the operator confirms.
package intake

import (
	"strings"

	"github.com/m3rciful/zalogbot/core/telegram/state"
)

// Conversation states, one per prompt.
const (
	StepBrand   state.State = "intake.brand"
	StepModel   state.State = "intake.model"
	StepYear    state.State = "intake.year"
	StepPrice   state.State = "intake.price"
	StepCity    state.State = "intake.city"
	StepPhoto   state.State = "intake.photo"
	StepPhone   state.State = "intake.phone"
	StepContact state.State = "intake.contact"
	StepLink    state.State = "intake.link"
	StepConfirm state.State = "intake.confirm"
)

const statePrefix = "intake."

var order = []state.State{
	StepBrand, StepModel, StepYear, StepPrice, StepCity,
	StepPhoto, StepPhone, StepContact, StepLink, StepConfirm,
}

// inputSteps is the number of steps that take a field value.
var inputSteps = len(order) - 1

// States returns every conversation state in order.
func States() []state.State {
	return append([]state.State(nil), order...)
}

func next(st state.State) state.State {
	for i, s := range order {
		if s == st && i+1 < len(order) {
			return order[i+1]
		}
	}
	return StepConfirm
}

func index(st state.State) int {
	for i, s := range order {
		if s == st {
			return i
		}
	}
	return -1
}

// short strips the state prefix: "intake.model" -> "model".
func short(st state.State) string {
	return strings.TrimPrefix(string(st), statePrefix)
}

// IsStep reports whether st belongs to the intake conversation.
func IsStep(st state.State) bool {
	return index(st) >= 0
}

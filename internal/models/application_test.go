// internal/models/application_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  Status
		op       Operation
		wantNext Status
		wantErr  bool
	}{
		{"documents from pending", StatusDocumentsPending, OpRecordDocuments, StatusDocumentsUploaded, false},
		{"documents from submitted", StatusSubmitted, OpRecordDocuments, StatusDocumentsUploaded, false},
		{"documents twice", StatusDocumentsUploaded, OpRecordDocuments, "", true},
		{"approve from uploaded", StatusDocumentsUploaded, OpApprove, StatusApproved, false},
		{"approve before documents", StatusDocumentsPending, OpApprove, "", true},
		{"approve twice", StatusApproved, OpApprove, "", true},
		{"send contract", StatusApproved, OpSendContract, StatusContractSent, false},
		{"send contract too early", StatusDocumentsUploaded, OpSendContract, "", true},
		{"sign contract", StatusContractSent, OpSignContract, StatusContractSigned, false},
		{"sign before send", StatusApproved, OpSignContract, "", true},
		{"choose delivery", StatusContractSigned, OpChooseDelivery, StatusAwaitingDelivery, false},
		{"choose delivery from terminal", StatusAwaitingDelivery, OpChooseDelivery, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := CanTransition(tt.current, tt.op)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantNext, next)
		})
	}
}

func TestCanTransitionErrorNamesBothStatuses(t *testing.T) {
	_, err := CanTransition(StatusDocumentsUploaded, OpSignContract)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), string(StatusContractSent))
	assert.Contains(t, err.Error(), string(StatusDocumentsUploaded))
}

func TestCanTransitionUnknownOperation(t *testing.T) {
	_, err := CanTransition(StatusSubmitted, Operation("reject"))
	assert.Error(t, err)
}

func TestReservedStatusesHaveNoTransitions(t *testing.T) {
	for _, reserved := range []Status{StatusUnderReview, StatusRejected} {
		for op := range transitions {
			_, err := CanTransition(reserved, op)
			assert.Error(t, err, "op %s should not fire from %s", op, reserved)
		}
	}
}

func TestValidDeliveryChoice(t *testing.T) {
	assert.True(t, ValidDeliveryChoice(DeliveryPickup))
	assert.True(t, ValidDeliveryChoice(DeliveryHome))
	assert.False(t, ValidDeliveryChoice("courier"))
	assert.False(t, ValidDeliveryChoice(""))
}

func TestFindVehicle(t *testing.T) {
	v := FindVehicle("1")
	assert.NotNil(t, v)
	assert.Equal(t, "Honda", v.Make)

	snap := v.Snapshot()
	assert.Equal(t, v.Price, snap.Price)
	assert.Equal(t, v.Model, snap.Model)

	assert.Nil(t, FindVehicle("999"))
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/storetest"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) payroll.TxStore { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SaveEmployee(ctx, payroll.EmployeeRecord{ID: "emp-1", Name: "Ana"}))

	// GIVEN: A caller mutates a returned record
	got, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	got.Name = "changed"

	// THEN: The stored row is unaffected
	again, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", again.Name)
}

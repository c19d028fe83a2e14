package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

func TestResolverAdminBypassesTable(t *testing.T) {
	r := NewResolver()

	d := r.Resolve(domain.RoleAdmin, domain.ResShiftApprove)
	assert.True(t, d.Granted)
}

func TestResolverDeniesByDefault(t *testing.T) {
	r := NewResolver()

	d := r.Resolve(domain.RoleStaff, domain.ResShiftSubmit)
	assert.False(t, d.Granted)
	assert.Contains(t, d.Reason, "staff")
}

func TestResolverGrantedResource(t *testing.T) {
	r := NewResolver()
	r.Replace(map[domain.UserRole][]string{
		domain.RoleStaff:      {domain.ResShiftSubmit},
		domain.RoleSupervisor: {domain.ResShiftSubmit, domain.ResShiftApprove},
	})

	assert.True(t, r.Resolve(domain.RoleStaff, domain.ResShiftSubmit).Granted)
	assert.False(t, r.Resolve(domain.RoleStaff, domain.ResShiftApprove).Granted)
	assert.True(t, r.Resolve(domain.RoleSupervisor, domain.ResShiftApprove).Granted)
	assert.False(t, r.Resolve(domain.RoleManager, domain.ResShiftApprove).Granted)
}

func TestResolverReplaceSwapsWholeTable(t *testing.T) {
	r := NewResolver()
	r.Replace(map[domain.UserRole][]string{
		domain.RoleStaff: {domain.ResShiftSubmit},
	})
	assert.True(t, r.Resolve(domain.RoleStaff, domain.ResShiftSubmit).Granted)

	r.Replace(map[domain.UserRole][]string{
		domain.RoleManager: {domain.ResShiftApprove},
	})
	assert.False(t, r.Resolve(domain.RoleStaff, domain.ResShiftSubmit).Granted)
	assert.True(t, r.Resolve(domain.RoleManager, domain.ResShiftApprove).Granted)
}

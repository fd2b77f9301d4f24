package admin

import (
	"github.com/lumen-store/internal/authz"
	"github.com/lumen-store/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AdminListBuiltinRoles 内置角色模板
func (h *Handler) AdminListBuiltinRoles(c *gin.Context) {
	response.Success(c, gin.H{"roles": authz.BuiltinRoleSeeds()})
}

// RoleRequest 角色创建请求
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AdminEnsureRole 创建（或确认）角色
func (h *Handler) AdminEnsureRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondError(c, response.CodeInternal, "role save failed", err)
		return
	}

	requestLog(c).Infow("authz_role_ensured",
		"role", role,
		"actor", actorName(c),
	)

	response.Success(c, gin.H{"role": role})
}

// RolePolicyRequest 角色权限请求
type RolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// AdminGrantRolePolicy 为角色授权
func (h *Handler) AdminGrantRolePolicy(c *gin.Context) {
	role := c.Param("role")

	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeInternal, "policy save failed", err)
		return
	}

	requestLog(c).Infow("authz_policy_granted",
		"role", role,
		"object", req.Object,
		"action", req.Action,
		"actor", actorName(c),
	)

	response.Success(c, gin.H{"granted": true})
}

// AdminRevokeRolePolicy 撤销角色权限
func (h *Handler) AdminRevokeRolePolicy(c *gin.Context) {
	role := c.Param("role")

	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeInternal, "policy remove failed", err)
		return
	}

	requestLog(c).Infow("authz_policy_revoked",
		"role", role,
		"object", req.Object,
		"action", req.Action,
		"actor", actorName(c),
	)

	response.Success(c, gin.H{"revoked": true})
}

// AdminGetAdminRoles 查询管理员角色
func (h *Handler) AdminGetAdminRoles(c *gin.Context) {
	adminID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}

	response.Success(c, gin.H{"roles": roles})
}

// AdminRolesRequest 管理员角色设置请求
type AdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// AdminSetAdminRoles 重设管理员角色
func (h *Handler) AdminSetAdminRoles(c *gin.Context) {
	adminID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	target, err := h.AdminRepo.GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "admin fetch failed", err)
		return
	}
	if target == nil {
		respondError(c, response.CodeNotFound, "admin not found", nil)
		return
	}

	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		respondError(c, response.CodeInternal, "role save failed", err)
		return
	}

	requestLog(c).Infow("authz_admin_roles_set",
		"admin_id", adminID,
		"roles", req.Roles,
		"actor", actorName(c),
	)

	response.Success(c, gin.H{"roles": req.Roles})
}

// AdminReloadPolicies 重新加载权限策略
func (h *Handler) AdminReloadPolicies(c *gin.Context) {
	if err := h.AuthzService.ReloadPolicy(); err != nil {
		respondError(c, response.CodeInternal, "policy reload failed", err)
		return
	}

	response.Success(c, gin.H{"reloaded": true})
}

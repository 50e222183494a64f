package handlers

import (
	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/service"
)

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func staffResponse(s *domain.Staff) dto.StaffResponse {
	return dto.StaffResponse{
		ID:           s.ID,
		UserID:       s.UserID,
		EmployeeID:   s.EmployeeID,
		Designation:  s.Designation,
		Department:   s.Department,
		SupervisorID: s.SupervisorID,
		HourlyRate:   s.HourlyRate,
		IsAvailable:  s.IsAvailable,
		JoiningDate:  s.JoiningDate,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func clientResponse(c *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:              c.ID,
		UserID:          c.UserID,
		CompanyName:     c.CompanyName,
		BusinessType:    c.BusinessType,
		PAN:             c.PAN,
		GSTNumber:       c.GSTNumber,
		TAN:             c.TAN,
		Address:         c.Address,
		City:            c.City,
		State:           c.State,
		PostalCode:      c.PostalCode,
		AssignedStaffID: c.AssignedStaffID,
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func clientAccountResponse(account *service.ClientAccount) dto.AccountCreatedResponse {
	return dto.AccountCreatedResponse{
		User:              userResponse(account.User),
		Profile:           clientResponse(account.Client),
		TemporaryPassword: account.TemporaryPassword,
	}
}

func leadResponse(l *domain.Lead) dto.LeadResponse {
	return dto.LeadResponse{
		ID:                l.ID,
		LeadID:            l.LeadID,
		Name:              l.Name,
		Email:             l.Email,
		Phone:             l.Phone,
		CompanyName:       l.CompanyName,
		Source:            l.Source,
		Notes:             l.Notes,
		Status:            l.Status,
		Priority:          l.Priority,
		AssignedStaffID:   l.AssignedStaffID,
		ServiceItemID:     l.ServiceItemID,
		ConvertedClientID: l.ConvertedClientID,
		ConvertedDate:     l.ConvertedDate,
		LostReason:        l.LostReason,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func taskResponse(t *service.TaskView) dto.TaskResponse {
	return dto.TaskResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		ClientID:         t.ClientID,
		AssignedStaffID:  t.AssignedStaffID,
		ServiceItemID:    t.ServiceItemID,
		ServiceRequestID: t.ServiceRequestID,
		Status:           t.Status,
		Priority:         t.Priority,
		Deadline:         t.Deadline,
		DueDate:          t.DueDate,
		AssignedDate:     t.AssignedDate,
		StartedDate:      t.StartedDate,
		CompletedDate:    t.CompletedDate,
		EstimatedHours:   t.EstimatedHours,
		CreatedByID:      t.CreatedByID,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func documentResponse(d *domain.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:              d.ID,
		ClientID:        d.ClientID,
		TaskID:          d.TaskID,
		UploadedByID:    d.UploadedByID,
		FileName:        d.FileName,
		StorageKey:      d.StorageKey,
		ContentType:     d.ContentType,
		SizeBytes:       d.SizeBytes,
		DocumentType:    d.DocumentType,
		Status:          d.Status,
		VerifiedByID:    d.VerifiedByID,
		VerifiedAt:      d.VerifiedAt,
		RejectedByID:    d.RejectedByID,
		RejectedAt:      d.RejectedAt,
		RejectionReason: d.RejectionReason,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func serviceRequestResponse(r *domain.ServiceRequest) dto.ServiceRequestResponse {
	return dto.ServiceRequestResponse{
		ID:                r.ID,
		RequestID:         r.RequestID,
		ClientID:          r.ClientID,
		ServiceItemID:     r.ServiceItemID,
		AssignedStaffID:   r.AssignedStaffID,
		Title:             r.Title,
		Description:       r.Description,
		Status:            r.Status,
		Priority:          r.Priority,
		PreferredDeadline: r.PreferredDeadline,
		RejectionReason:   r.RejectionReason,
		ConvertedTaskID:   r.ConvertedTaskID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:                n.ID,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		IsRead:            n.IsRead,
		ReadAt:            n.ReadAt,
		RelatedTaskID:     n.RelatedTaskID,
		RelatedDocumentID: n.RelatedDocumentID,
		CreatedAt:         n.CreatedAt,
	}
}

func auditLogResponse(a *domain.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:          a.ID,
		Action:      a.Action,
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
		OldValues:   a.OldValues,
		NewValues:   a.NewValues,
		ActorUserID: a.ActorUserID,
		CreatedAt:   a.CreatedAt,
	}
}

func catalogItemResponse(item *domain.ServiceItem) dto.CatalogItemResponse {
	return dto.CatalogItemResponse{
		ID:             item.ID,
		SubcategoryID:  item.SubcategoryID,
		Name:           item.Name,
		Description:    item.Description,
		EstimatedHours: item.EstimatedHours,
		IsActive:       item.IsActive,
	}
}

func catalogResponse(tree []service.CatalogCategory) []dto.CatalogCategoryResponse {
	out := make([]dto.CatalogCategoryResponse, 0, len(tree))
	for _, branch := range tree {
		category := dto.CatalogCategoryResponse{
			ID:            branch.Category.ID,
			Name:          branch.Category.Name,
			Description:   branch.Category.Description,
			IsActive:      branch.Category.IsActive,
			Subcategories: make([]dto.CatalogSubcategoryResponse, 0, len(branch.Subcategories)),
		}
		for _, sub := range branch.Subcategories {
			group := dto.CatalogSubcategoryResponse{
				ID:          sub.Subcategory.ID,
				Name:        sub.Subcategory.Name,
				Description: sub.Subcategory.Description,
				IsActive:    sub.Subcategory.IsActive,
				Items:       make([]dto.CatalogItemResponse, 0, len(sub.Items)),
			}
			for i := range sub.Items {
				group.Items = append(group.Items, catalogItemResponse(&sub.Items[i]))
			}
			category.Subcategories = append(category.Subcategories, group)
		}
		out = append(out, category)
	}
	return out
}

// mapSlice applies fn to the address of each element.
func mapSlice[T, R any](items []T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, fn(&items[i]))
	}
	return out
}

package api

import (
	"net/http"

	"github.com/membertools/dues/pkg/httputil"
	"github.com/membertools/dues/pkg/members"
)

// RegisterMember registers a new member with their initial annual membership
func (s *Server) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var req members.RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	member, err := s.service.Register(r.Context(), &req)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, member)
}

// ListMembers lists all registered members
func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ListMembers(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// GetMember retrieves a member by ID
func (s *Server) GetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, "id")
	if !ok {
		return
	}

	member, err := s.service.GetMember(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, member)
}

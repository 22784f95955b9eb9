package services

import (
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/schema"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// Integration adapters (publisher, task queue, locker) are passed as posting options.
func NewServiceContainer(repos portsrepo.RepositoryProvider, resolver *schema.Resolver, postingOptions ...PostingOption) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Posting:       NewPostingService(repos.UnitOfWork, resolver, postingOptions...),
		Sequence:      NewSequenceService(repos.UnitOfWork),
		VoucherConfig: NewVoucherConfigService(repos.UnitOfWork, resolver),
	}
}

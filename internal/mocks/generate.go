package mocks

//go:generate mockery --name DocumentStore --srcpkg github.com/aevon-lab/tokenledger/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter

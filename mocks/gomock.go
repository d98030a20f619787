package mocks

//go:generate mockgen -source=./../storage/types.go -destination=./storageMocks/storage_mock.go -package=storageMocks
//go:generate mockgen -source=./../node/modules/state/state.go -destination=./stateMocks/state_mock.go -package=stateMocks

package errors

import "errors"

// ErrLockNotAcquired 分布式锁已被其他进程持有
var ErrLockNotAcquired = errors.New("操作正在进行中，请稍后再试")

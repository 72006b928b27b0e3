package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	notFound := New(KindNotFound, 1, "missing")
	wrapped := fmt.Errorf("查询失败: %w", notFound)

	if KindOf(notFound) != KindNotFound {
		t.Error("期望 KindNotFound")
	}
	if KindOf(wrapped) != KindNotFound {
		t.Error("包装后的错误应保留分类")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("普通错误应视为 KindInternal")
	}
	if !errors.Is(wrapped, notFound) {
		t.Error("errors.Is 应能识别哨兵错误")
	}
}

func TestAs(t *testing.T) {
	if As(errors.New("boom")) != nil {
		t.Error("普通错误不应提取出 *Error")
	}
	e := As(fmt.Errorf("x: %w", ErrOptimisticLock))
	if e == nil || e.Kind != KindConflict {
		t.Errorf("期望提取乐观锁冲突，实际: %+v", e)
	}
}

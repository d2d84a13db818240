// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build darwin && cgo

// macOS-only getattrlist interposition. KOMPOFS stubs a single recognized
// attribute query, ATTR_CMN_OBJTYPE, the one callers actually probe to
// distinguish a file from a directory without a full stat(2); any other
// attrlist bit requested forwards to the real call rather than risk
// returning a buffer shaped wrong for what the caller asked for.
package main

/*
#include <sys/attr.h>
#include <sys/errno.h>
#include <sys/vnode.h>
#include <unistd.h>

extern int kompofs_go_getattrlist(const char *path, struct attrlist *attrList, void *attrBuf, size_t attrBufSize, unsigned long options);

int getattrlist(const char *path, struct attrlist *attrList, void *attrBuf, size_t attrBufSize, unsigned long options) {
	return kompofs_go_getattrlist(path, attrList, attrBuf, attrBufSize, options);
}

static int kompofs_real_getattrlist(void *fn, const char *path, struct attrlist *attrList, void *attrBuf, size_t attrBufSize, unsigned long options) {
	int (*f)(const char *, struct attrlist *, void *, size_t, unsigned long) = fn;
	return f(path, attrList, attrBuf, attrBufSize, options);
}

// kompofs_attr_is_objtype_only reports whether attrList requests nothing
// but ATTR_CMN_OBJTYPE in the common-attributes group, the one shape this
// stub answers.
static int kompofs_attr_is_objtype_only(struct attrlist *attrList) {
	return attrList->bitmapcount == ATTR_BIT_MAP_COUNT &&
		attrList->commonattr == ATTR_CMN_OBJTYPE &&
		attrList->fileattr == 0 && attrList->dirattr == 0 &&
		attrList->volattr == 0 && attrList->forkattr == 0;
}

struct kompofs_objtype_buf {
	uint32_t length;
	fsobj_type_t type;
};

static void kompofs_write_objtype(void *attrBuf, fsobj_type_t t) {
	struct kompofs_objtype_buf *b = attrBuf;
	b->length = sizeof(struct kompofs_objtype_buf);
	b->type = t;
}
*/
import "C"

import (
	"unsafe"

	"github.com/kompofs/kompofs/internal/abi"
	"github.com/kompofs/kompofs/internal/dispatch"
)

func realGetattrlist(path *C.char, attrList *C.struct_attrlist, attrBuf unsafe.Pointer, attrBufSize C.size_t, options C.ulong) C.int {
	return C.kompofs_real_getattrlist(dispatch.NextSymbol("getattrlist"), path, attrList, attrBuf, attrBufSize, options)
}

//export kompofs_go_getattrlist
func kompofs_go_getattrlist(path *C.char, attrList *C.struct_attrlist, attrBuf unsafe.Pointer, attrBufSize C.size_t, options C.ulong) C.int {
	d := inst()
	if d == nil || C.kompofs_attr_is_objtype_only(attrList) == 0 {
		return realGetattrlist(path, attrList, attrBuf, attrBufSize, options)
	}
	kind, errno, virtual := d.Dispatcher.GetAttrList(C.GoString(path))
	if !virtual {
		return realGetattrlist(path, attrList, attrBuf, attrBufSize, options)
	}
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	if attrBufSize < C.size_t(unsafe.Sizeof(C.struct_kompofs_objtype_buf{})) {
		setErrno(dispatch.EFault)
		return -1
	}
	t := C.fsobj_type_t(C.VREG)
	if kind == abi.KindDir {
		t = C.fsobj_type_t(C.VDIR)
	}
	C.kompofs_write_objtype(attrBuf, t)
	return 0
}

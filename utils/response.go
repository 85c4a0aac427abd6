package utils

import (
	"github.com/kataras/iris/v12"
)

func JSONData(ctx iris.Context, data interface{}) {
	ctx.JSON(iris.Map{
		"data":  data,
		"meta":  iris.Map{},
		"links": iris.Map{},
	})
}

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}
